package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/internal/product"
	"github.com/fekuna/commerce-service/internal/product/dto"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products", h.Create)
	rg.GET("/products", h.List)
	rg.GET("/products/:id", h.Get)
	rg.PUT("/products/:id", h.Update)
	rg.DELETE("/products/:id", h.Deactivate)
	rg.GET("/products/low-stock", h.LowStock)
	rg.GET("/products/out-of-stock", h.OutOfStock)
}

func (h *ProductHandler) Create(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Update(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	input.ID = c.Param("id")

	p, err := h.uc.UpdateProduct(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Deactivate(c *gin.Context) {
	if err := h.uc.DeactivateProduct(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) List(c *gin.Context) {
	filters := &dto.ProductFilters{
		CategoryID:  c.Query("category_id"),
		SearchQuery: c.Query("q"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}

	products, total, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products, "total": total})
}

func (h *ProductHandler) LowStock(c *gin.Context) {
	products, total, err := h.uc.ListLowStock(c.Request.Context(),
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products, "total": total})
}

func (h *ProductHandler) OutOfStock(c *gin.Context) {
	products, total, err := h.uc.ListOutOfStock(c.Request.Context(),
		queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": products, "total": total})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
