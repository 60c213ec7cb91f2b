package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/commerce-service/internal/auth"
	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/internal/order"
	"github.com/fekuna/commerce-service/internal/order/dto"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{uc: uc, logger: log}
}

func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout", h.Checkout)
	rg.GET("/orders", h.List)
	rg.GET("/orders/:id", h.Get)
	rg.GET("/orders/number/:number", h.GetByNumber)
	rg.PUT("/orders/:id/status", h.UpdateStatus)
	rg.POST("/orders/:id/cancel", h.Cancel)
	rg.PUT("/orders/:id/payment-status", h.SetPaymentStatus)
	rg.POST("/orders/:id/refunds", h.RefundItems)
}

func (h *OrderHandler) Checkout(c *gin.Context) {
	var input dto.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	result, err := h.uc.CreateOrderFromCart(c.Request.Context(), auth.UserID(c), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.uc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) GetByNumber(c *gin.Context) {
	o, err := h.uc.GetOrderByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) List(c *gin.Context) {
	filters := &dto.OrderFilters{
		UserID:        c.Query("user_id"),
		Status:        model.OrderStatus(c.Query("status")),
		PaymentStatus: model.PaymentStatus(c.Query("payment_status")),
		Page:          queryInt(c, "page", 1),
		PageSize:      queryInt(c, "page_size", 20),
	}
	// Non-admin callers only see their own orders.
	if uid := auth.UserID(c); uid != "" && filters.UserID == "" {
		filters.UserID = uid
	}

	orders, total, err := h.uc.ListOrders(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": orders, "total": total})
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var input dto.UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	o, err := h.uc.UpdateStatus(c.Request.Context(), c.Param("id"), model.OrderStatus(input.Status))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	var input dto.CancelInput
	_ = c.ShouldBindJSON(&input)

	o, err := h.uc.CancelOrder(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) SetPaymentStatus(c *gin.Context) {
	var input dto.PaymentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	o, err := h.uc.SetPaymentStatus(c.Request.Context(), c.Param("id"), model.PaymentStatus(input.Status))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) RefundItems(c *gin.Context) {
	var input struct {
		Items []dto.RefundItemInput `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	o, err := h.uc.RefundItems(c.Request.Context(), c.Param("id"), input.Items)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
