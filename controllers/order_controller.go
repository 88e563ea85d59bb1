package controllers

import (
	"net/http"

	"github.com/Dat0801/shopwave/middleware"
	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderController handles checkout and order lifecycle requests.
type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Checkout handles POST /checkout. The whole placement runs in a single
// database transaction behind the service.
func (oc *OrderController) Checkout(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req services.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := oc.orderService.Checkout(ctx.Request.Context(), userID, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusCreated, result)
}

// GetOrders handles GET /orders for the authenticated user.
func (oc *OrderController) GetOrders(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	page, limit := parsePaginationParams(ctx)
	resp, svcErr := oc.orderService.GetUserOrders(ctx.Request.Context(), userID, page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
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

	order, svcErr := oc.orderService.GetOrderByID(ctx.Request.Context(), userID, orderID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// CancelOrder handles POST /orders/:id/cancel.
func (oc *OrderController) CancelOrder(ctx *gin.Context) {
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

	if svcErr := oc.orderService.CancelOrder(ctx.Request.Context(), userID, orderID); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

// GetAllOrders handles GET /admin/orders.
func (oc *OrderController) GetAllOrders(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	resp, svcErr := oc.orderService.GetAllOrders(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PATCH /admin/orders/:id/status.
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	if svcErr := oc.orderService.UpdateStatus(ctx.Request.Context(), orderID, req.Status); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Order status updated"})
}
