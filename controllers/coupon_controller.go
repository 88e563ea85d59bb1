package controllers

import (
	"net/http"

	"github.com/Dat0801/shopwave/models"
	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
)

// CouponController handles coupon validation and admin coupon management.
type CouponController struct {
	couponService services.CouponService
}

func NewCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// ValidateCoupon handles POST /coupons/validate. This is a read-only
// preview; it never consumes a usage slot.
func (cc *CouponController) ValidateCoupon(ctx *gin.Context) {
	var req models.ValidateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	resp, svcErr := cc.couponService.ValidateCoupon(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateCoupon handles POST /admin/coupons.
func (cc *CouponController) CreateCoupon(ctx *gin.Context) {
	var req models.CreateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	coupon, svcErr := cc.couponService.CreateCoupon(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// GetCoupon handles GET /admin/coupons/:code.
func (cc *CouponController) GetCoupon(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Coupon code is required"})
		return
	}

	coupon, svcErr := cc.couponService.GetCoupon(ctx.Request.Context(), code)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

// ListCoupons handles GET /admin/coupons.
func (cc *CouponController) ListCoupons(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	coupons, total, svcErr := cc.couponService.ListCoupons(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"coupons": coupons,
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// DeactivateCoupon handles DELETE /admin/coupons/:code. Coupons are never
// hard-deleted so past orders keep their audit trail.
func (cc *CouponController) DeactivateCoupon(ctx *gin.Context) {
	code := ctx.Param("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Coupon code is required"})
		return
	}

	if svcErr := cc.couponService.DeactivateCoupon(ctx.Request.Context(), code); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Coupon deactivated"})
}
