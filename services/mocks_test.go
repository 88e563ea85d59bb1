package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/repository"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"gorm.io/gorm"
)

// In-memory fakes for the repository and processor interfaces. Each fake
// exposes optional function hooks so a test can override one behavior without
// reimplementing the whole interface.

type mockCartStore struct {
	mu      sync.Mutex
	carts   map[string]*models.Cart
	getErr  error
	saveErr error
	deleted []string
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]*models.Cart)}
}

func (m *mockCartStore) Get(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.carts[userID], nil
}

func (m *mockCartStore) Save(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.carts[cart.UserID] = cart
	return nil
}

func (m *mockCartStore) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

type mockProductRepo struct {
	products map[uuid.UUID]*models.Product
}

func newMockProductRepo(products ...*models.Product) *mockProductRepo {
	repo := &mockProductRepo{products: make(map[uuid.UUID]*models.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (m *mockProductRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProductRepo) FindAll(_ context.Context, page, limit int) ([]models.Product, int64, error) {
	var out []models.Product
	for _, p := range m.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if p.Stock+delta < 0 {
		return nil, errors.New(`new row for relation "products" violates check constraint`)
	}
	p.Stock += delta
	return p, nil
}

type mockCouponRepo struct {
	coupons   map[string]*models.Coupon
	createErr error
}

func newMockCouponRepo(coupons ...*models.Coupon) *mockCouponRepo {
	repo := &mockCouponRepo{coupons: make(map[string]*models.Coupon)}
	for _, c := range coupons {
		repo.coupons[c.Code] = c
	}
	return repo
}

func (m *mockCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.coupons[coupon.Code]; exists {
		return errors.New(`duplicate key value violates unique constraint "idx_coupons_code"`)
	}
	m.coupons[coupon.Code] = coupon
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) && c.Active {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCouponRepo) Deactivate(_ context.Context, code string) error {
	for _, c := range m.coupons {
		if strings.EqualFold(c.Code, code) {
			c.Active = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCouponRepo) FindAll(_ context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var out []models.Coupon
	for _, c := range m.coupons {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

type mockOrderRepo struct {
	createFn            func(ctx context.Context, params repository.CreateOrderParams) (*models.Order, []models.Product, error)
	orders              map[uuid.UUID]*models.Order
	statusUpdates       map[uuid.UUID]string
	paymentStatusUpdate map[uuid.UUID]string
}

func newMockOrderRepo(orders ...*models.Order) *mockOrderRepo {
	repo := &mockOrderRepo{
		orders:              make(map[uuid.UUID]*models.Order),
		statusUpdates:       make(map[uuid.UUID]string),
		paymentStatusUpdate: make(map[uuid.UUID]string),
	}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (m *mockOrderRepo) CreateFromCart(ctx context.Context, params repository.CreateOrderParams) (*models.Order, []models.Product, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return nil, nil, errors.New("createFn not set")
}

func (m *mockOrderRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) FindAll(_ context.Context, page, limit int) ([]models.Order, int64, error) {
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) FindByIDAndUserID(_ context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if o, ok := m.orders[orderID]; ok && o.UserID == userID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	if o, ok := m.orders[orderID]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, orderID uuid.UUID, status string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	m.statusUpdates[orderID] = status
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, orderID uuid.UUID, paymentStatus string) error {
	o, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.PaymentStatus = paymentStatus
	m.paymentStatusUpdate[orderID] = paymentStatus
	return nil
}

type mockPaymentRepo struct {
	payments map[uuid.UUID]*models.Payment
	upserts  []*models.Payment
	updates  map[uuid.UUID]map[string]interface{}
}

func newMockPaymentRepo(payments ...*models.Payment) *mockPaymentRepo {
	repo := &mockPaymentRepo{
		payments: make(map[uuid.UUID]*models.Payment),
		updates:  make(map[uuid.UUID]map[string]interface{}),
	}
	for _, p := range payments {
		repo.payments[p.ID] = p
	}
	return repo
}

func (m *mockPaymentRepo) UpsertByIntentID(_ context.Context, payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	m.payments[payment.ID] = payment
	m.upserts = append(m.upserts, payment)
	return nil
}

func (m *mockPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) FindByIntentID(_ context.Context, intentID string) (*models.Payment, error) {
	for _, p := range m.payments {
		if p.StripePaymentIntentID == intentID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) FindLatestByOrderID(_ context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range m.payments {
		if p.OrderID == orderID && (latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *mockPaymentRepo) Update(_ context.Context, id uuid.UUID, updates map[string]interface{}) error {
	p, ok := m.payments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(string); ok {
		p.Status = status
	}
	m.updates[id] = updates
	return nil
}

type stubStripe struct {
	createFn func(amount int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error)
	getFn    func(id string) (*stripe.PaymentIntent, error)
	refundFn func(intentID string, amount *int64) (*stripe.Refund, error)
}

func (s *stubStripe) CreateIntent(amount int64, currency, description string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	if s.createFn != nil {
		return s.createFn(amount, currency, description, metadata)
	}
	return &stripe.PaymentIntent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (s *stubStripe) GetIntent(id string) (*stripe.PaymentIntent, error) {
	if s.getFn != nil {
		return s.getFn(id)
	}
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusSucceeded}, nil
}

func (s *stubStripe) Refund(intentID string, amount *int64) (*stripe.Refund, error) {
	if s.refundFn != nil {
		return s.refundFn(intentID, amount)
	}
	return &stripe.Refund{ID: "re_test", Status: stripe.RefundStatusSucceeded}, nil
}

// recordingPublisher captures fan-out calls so tests can assert on them.
type recordingPublisher struct {
	mu            sync.Mutex
	ordersPlaced  []*models.Order
	lowStock      []models.Product
	paymentEvents []string
}

func (r *recordingPublisher) PublishOrderPlaced(_ context.Context, order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ordersPlaced = append(r.ordersPlaced, order)
}

func (r *recordingPublisher) PublishLowStock(_ context.Context, product models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowStock = append(r.lowStock, product)
}

func (r *recordingPublisher) PublishPaymentEvent(_ context.Context, eventType string, _ *models.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paymentEvents = append(r.paymentEvents, eventType)
}
