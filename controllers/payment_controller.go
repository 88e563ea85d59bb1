package controllers

import (
	"math"
	"net/http"

	"github.com/Dat0801/shopwave/middleware"
	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentController handles payment intents, client-side confirmation,
// refunds and the processor webhook.
type PaymentController struct {
	paymentService services.PaymentService
	webhookService services.WebhookService
	orderService   services.OrderService
	currency       string
	logger         *zap.Logger
}

func NewPaymentController(
	paymentService services.PaymentService,
	webhookService services.WebhookService,
	orderService services.OrderService,
	currency string,
	logger *zap.Logger,
) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		webhookService: webhookService,
		orderService:   orderService,
		currency:       currency,
		logger:         logger,
	}
}

type createIntentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

type confirmPaymentRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
}

type refundRequest struct {
	Amount *int64 `json:"amount" binding:"omitempty,gt=0"`
}

// CreateIntent handles POST /payments/intent. Used to retry payment on an
// order whose original intent failed or was abandoned.
func (pc *PaymentController) CreateIntent(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req createIntentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	order, svcErr := pc.orderService.GetOrderByID(ctx.Request.Context(), userID, req.OrderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	if order.Status == models.OrderStatusCancelled {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Order is cancelled"})
		return
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Order is already paid"})
		return
	}

	amount := int64(math.Round(order.TotalPrice * 100))
	payment, clientSecret, err := pc.paymentService.CreateIntent(ctx.Request.Context(), order, amount, pc.currency)
	if err != nil {
		pc.logger.Error("Failed to create payment intent",
			zap.String("order_id", order.ID.String()),
			zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Payment could not be initiated. Please retry."})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"payment":       payment,
		"client_secret": clientSecret,
	})
}

// GetOrderPayment handles GET /orders/:id/payment, polled by the processing
// page while a card payment settles.
func (pc *PaymentController) GetOrderPayment(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	// Ownership check rides on the scoped order lookup.
	if _, svcErr := pc.orderService.GetOrderByID(ctx.Request.Context(), userID, orderID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	payment, svcErr := pc.paymentService.LatestForOrder(ctx.Request.Context(), orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"payment": payment})
}

// ConfirmPayment handles POST /payments/confirm, called by the client after
// the processor's on-page flow completes.
func (pc *PaymentController) ConfirmPayment(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req confirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	settled, svcErr := pc.paymentService.ConfirmPayment(ctx.Request.Context(), req.PaymentID, userID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	if settled {
		ctx.JSON(http.StatusOK, gin.H{"status": "succeeded"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "pending"})
}

// Refund handles POST /admin/payments/:id/refund. A nil amount refunds the
// full charge.
func (pc *PaymentController) Refund(ctx *gin.Context) {
	paymentID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
		return
	}

	var req refundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	refunded, svcErr := pc.paymentService.Refund(ctx.Request.Context(), paymentID, req.Amount)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	if refunded {
		ctx.JSON(http.StatusOK, gin.H{"status": "refunded"})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"status": "pending"})
}

// HandleWebhook handles POST /webhooks/stripe. The raw body is read before
// any parsing because the signature covers the exact bytes on the wire.
// Signature mismatch returns 401, a processing failure returns 422 so the
// processor retries, and everything else acks with 200.
func (pc *PaymentController) HandleWebhook(ctx *gin.Context) {
	payload, err := ctx.GetRawData()
	if err != nil {
		pc.logger.Error("Failed to read webhook body", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	signature := ctx.GetHeader("Stripe-Signature")
	if !pc.webhookService.VerifySignature(payload, signature) {
		pc.logger.Warn("Webhook signature verification failed",
			zap.String("client_ip", ctx.ClientIP()))
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	if err := pc.webhookService.HandleEvent(ctx.Request.Context(), payload); err != nil {
		pc.logger.Error("Webhook processing failed", zap.Error(err))
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Event could not be processed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
