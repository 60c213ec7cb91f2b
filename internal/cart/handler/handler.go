package handler

import (
	"net/http"

	"github.com/fekuna/commerce-service/internal/auth"
	"github.com/fekuna/commerce-service/internal/cart"
	"github.com/fekuna/commerce-service/internal/cart/dto"
	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	uc     cart.UseCase
	logger logger.ZapLogger
}

func NewCartHandler(uc cart.UseCase, log logger.ZapLogger) *CartHandler {
	return &CartHandler{uc: uc, logger: log}
}

func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", h.Get)
	rg.POST("/cart/items", h.AddItem)
	rg.PUT("/cart/items/:itemId", h.UpdateQuantity)
	rg.PUT("/cart/items/:itemId/price", h.UpdateItemPrice)
	rg.DELETE("/cart/items/:itemId", h.RemoveItem)
	rg.DELETE("/cart", h.Clear)
	rg.POST("/cart/merge", h.Merge)
	rg.GET("/cart/validate", h.ValidateStock)
}

func owner(c *gin.Context) dto.CartOwner {
	id := auth.FromRequest(c)
	return dto.CartOwner{UserID: id.UserID, GuestID: id.GuestID}
}

func (h *CartHandler) Get(c *gin.Context) {
	result, err := h.uc.GetCart(c.Request.Context(), owner(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var input dto.AddToCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	result, err := h.uc.AddToCart(c.Request.Context(), owner(c), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var input dto.UpdateQuantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	result, err := h.uc.UpdateQuantity(c.Request.Context(), owner(c), c.Param("itemId"), input.Quantity)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) UpdateItemPrice(c *gin.Context) {
	result, err := h.uc.UpdateItemPrice(c.Request.Context(), owner(c), c.Param("itemId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	result, err := h.uc.RemoveItem(c.Request.Context(), owner(c), c.Param("itemId"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) Clear(c *gin.Context) {
	result, err := h.uc.ClearCart(c.Request.Context(), owner(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) Merge(c *gin.Context) {
	id := auth.FromRequest(c)
	if id.UserID == "" || id.GuestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merge requires both user and guest identities"})
		return
	}

	result, err := h.uc.MergeGuestCart(c.Request.Context(), id.GuestID, id.UserID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CartHandler) ValidateStock(c *gin.Context) {
	report, err := h.uc.ValidateStock(c.Request.Context(), owner(c))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": report})
}
