package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dat0801/shopwave/models"
	"github.com/redis/go-redis/v9"
)

// CartStore defines the interface for the session cart. Carts are ephemeral:
// a missing key is returned as a nil cart, not an error.
type CartStore interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, userID string) error
}

// RedisCartStore keeps each cart as a JSON blob under cart:user:<id> with a
// TTL, replacing the original's process-wide session state.
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

func (s *RedisCartStore) key(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}

func (s *RedisCartStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = time.Now()

	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(cart.UserID), data, s.ttl).Err()
}

func (s *RedisCartStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, s.key(userID)).Err()
}
