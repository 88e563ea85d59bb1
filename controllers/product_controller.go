package controllers

import (
	"net/http"

	"github.com/Dat0801/shopwave/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductController handles catalog reads and the admin restock endpoint.
type ProductController struct {
	productService services.ProductService
}

func NewProductController(productService services.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

type adjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ListProducts handles GET /products.
func (pc *ProductController) ListProducts(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	products, total, svcErr := pc.productService.ListProducts(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"products": products,
		"meta": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(ctx *gin.Context) {
	productID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	product, svcErr := pc.productService.GetProduct(ctx.Request.Context(), productID)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}

// AdjustStock handles PATCH /admin/products/:id/stock.
func (pc *ProductController) AdjustStock(ctx *gin.Context) {
	productID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var req adjustStockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	product, svcErr := pc.productService.AdjustStock(ctx.Request.Context(), productID, req.Delta)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"product": product})
}
