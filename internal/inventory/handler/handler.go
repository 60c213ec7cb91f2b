package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/commerce-service/internal/auth"
	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/internal/inventory"
	"github.com/fekuna/commerce-service/internal/inventory/dto"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/inventory/transactions", h.RecordTransaction)
	rg.GET("/inventory/transactions", h.ListTransactions)
}

func (h *InventoryHandler) RecordTransaction(c *gin.Context) {
	var input dto.RecordTransactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	input.CreatedBy = auth.UserID(c)

	result, err := h.uc.RecordTransaction(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	filters := &dto.TransactionFilters{
		ProductID:       c.Query("product_id"),
		TransactionType: model.TransactionType(c.Query("type")),
		ReferenceType:   c.Query("reference_type"),
		ReferenceID:     c.Query("reference_id"),
		Page:            queryInt(c, "page", 1),
		PageSize:        queryInt(c, "page_size", 20),
	}

	txns, total, err := h.uc.ListTransactions(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": txns, "total": total})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
