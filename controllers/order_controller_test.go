package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dat0801/shopwave/middleware"
	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	checkoutResult *services.CheckoutResult
	checkoutErr    *services.ServiceError
	cancelErr      *services.ServiceError
	gotRequest     *services.CheckoutRequest
}

func (s *stubOrderService) Checkout(_ context.Context, _ uuid.UUID, req *services.CheckoutRequest) (*services.CheckoutResult, *services.ServiceError) {
	s.gotRequest = req
	if s.checkoutErr != nil {
		return nil, s.checkoutErr
	}
	return s.checkoutResult, nil
}

func (s *stubOrderService) GetUserOrders(_ context.Context, _ uuid.UUID, page, limit int) (*services.OrderResponse, *services.ServiceError) {
	return &services.OrderResponse{Meta: services.MetaData{Page: page, Limit: limit}}, nil
}

func (s *stubOrderService) GetOrderByID(_ context.Context, _, _ uuid.UUID) (*models.Order, *services.ServiceError) {
	return nil, &services.ServiceError{StatusCode: 404, Message: "Order not found"}
}

func (s *stubOrderService) CancelOrder(_ context.Context, _, _ uuid.UUID) *services.ServiceError {
	return s.cancelErr
}

func (s *stubOrderService) GetAllOrders(_ context.Context, page, limit int) (*services.OrderResponse, *services.ServiceError) {
	return &services.OrderResponse{Meta: services.MetaData{Page: page, Limit: limit}}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ uuid.UUID, _ string) *services.ServiceError {
	return nil
}

func newOrderRouter(svc services.OrderService, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewOrderController(svc)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, userID.String())
	})
	router.POST("/checkout", controller.Checkout)
	router.POST("/orders/:id/cancel", controller.CancelOrder)
	return router
}

func validCheckoutBody() []byte {
	body, _ := json.Marshal(map[string]string{
		"first_name":     "Ada",
		"last_name":      "Lovelace",
		"address":        "1 Analytical Way",
		"city":           "London",
		"postal_code":    "N1 9GU",
		"payment_method": "cod",
	})
	return body
}

func TestCheckoutEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("valid submission returns 201 with the result", func(t *testing.T) {
		orderID := uuid.New()
		svc := &stubOrderService{
			checkoutResult: &services.CheckoutResult{
				Order:      &models.Order{ID: orderID, UserID: userID},
				RedirectTo: "/orders/" + orderID.String(),
			},
		}
		router := newOrderRouter(svc, userID)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(validCheckoutBody()))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, svc.gotRequest)
		assert.Equal(t, "cod", svc.gotRequest.PaymentMethod)
		assert.Contains(t, w.Body.String(), orderID.String())
	})

	t.Run("missing required fields fail binding", func(t *testing.T) {
		svc := &stubOrderService{}
		router := newOrderRouter(svc, userID)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte(`{"payment_method":"cod"}`)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Nil(t, svc.gotRequest)
	})

	t.Run("unknown payment method fails binding", func(t *testing.T) {
		svc := &stubOrderService{}
		router := newOrderRouter(svc, userID)

		body, _ := json.Marshal(map[string]string{
			"first_name":     "Ada",
			"last_name":      "Lovelace",
			"address":        "1 Analytical Way",
			"city":           "London",
			"postal_code":    "N1 9GU",
			"payment_method": "barter",
		})
		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service errors keep their status code", func(t *testing.T) {
		svc := &stubOrderService{
			checkoutErr: &services.ServiceError{StatusCode: 400, Message: "Cart is empty"},
		}
		router := newOrderRouter(svc, userID)

		req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(validCheckoutBody()))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Cart is empty")
	})
}

func TestCancelOrderEndpoint(t *testing.T) {
	userID := uuid.New()

	t.Run("invalid order id", func(t *testing.T) {
		router := newOrderRouter(&stubOrderService{}, userID)

		req := httptest.NewRequest(http.MethodPost, "/orders/not-a-uuid/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("successful cancel", func(t *testing.T) {
		router := newOrderRouter(&stubOrderService{}, userID)

		req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("late cancel is rejected", func(t *testing.T) {
		svc := &stubOrderService{
			cancelErr: &services.ServiceError{StatusCode: 400, Message: "Order can no longer be cancelled"},
		}
		router := newOrderRouter(svc, userID)

		req := httptest.NewRequest(http.MethodPost, "/orders/"+uuid.NewString()+"/cancel", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
