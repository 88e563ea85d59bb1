package routes

import (
	"net/http"

	"github.com/Dat0801/shopwave/controllers"
	"github.com/Dat0801/shopwave/middleware"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Cart    *controllers.CartController
	Order   *controllers.OrderController
	Payment *controllers.PaymentController
	Coupon  *controllers.CouponController
	Product *controllers.ProductController
}

// SetupRoutes registers the full route table. Webhooks and health stay
// outside the auth group; admin routes require the admin role on top of a
// valid token.
func SetupRoutes(router *gin.Engine, c Controllers, jwtSecret string) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/webhooks/stripe", c.Payment.HandleWebhook)

	auth := router.Group("/")
	auth.Use(middleware.AuthMiddleware(jwtSecret))
	{
		auth.GET("/products", c.Product.ListProducts)
		auth.GET("/products/:id", c.Product.GetProduct)

		auth.GET("/cart", c.Cart.GetCart)
		auth.POST("/cart/items", c.Cart.AddItem)
		auth.PUT("/cart/items/:product_id", c.Cart.UpdateItem)
		auth.DELETE("/cart/items/:product_id", c.Cart.RemoveItem)
		auth.DELETE("/cart", c.Cart.ClearCart)
		auth.POST("/cart/coupon", c.Cart.ApplyCoupon)

		auth.POST("/coupons/validate", c.Coupon.ValidateCoupon)

		auth.POST("/checkout", middleware.RateLimit(rate.Limit(1), 5), c.Order.Checkout)
		auth.GET("/orders", c.Order.GetOrders)
		auth.GET("/orders/:id", c.Order.GetOrder)
		auth.POST("/orders/:id/cancel", c.Order.CancelOrder)

		auth.POST("/payments/intent", c.Payment.CreateIntent)
		auth.POST("/payments/confirm", c.Payment.ConfirmPayment)
		auth.GET("/orders/:id/payment", c.Payment.GetOrderPayment)
	}

	admin := router.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminOnly())
	{
		admin.POST("/coupons", c.Coupon.CreateCoupon)
		admin.GET("/coupons", c.Coupon.ListCoupons)
		admin.GET("/coupons/:code", c.Coupon.GetCoupon)
		admin.DELETE("/coupons/:code", c.Coupon.DeactivateCoupon)

		admin.GET("/orders", c.Order.GetAllOrders)
		admin.PATCH("/orders/:id/status", c.Order.UpdateStatus)

		admin.POST("/payments/:id/refund", c.Payment.Refund)

		admin.PATCH("/products/:id/stock", c.Product.AdjustStock)
	}
}
