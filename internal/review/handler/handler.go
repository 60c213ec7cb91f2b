package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/commerce-service/internal/auth"
	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/internal/review"
	"github.com/fekuna/commerce-service/internal/review/dto"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	uc     review.UseCase
	logger logger.ZapLogger
}

func NewReviewHandler(uc review.UseCase, log logger.ZapLogger) *ReviewHandler {
	return &ReviewHandler{uc: uc, logger: log}
}

func (h *ReviewHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.Create)
	rg.GET("/reviews", h.List)
	rg.PUT("/reviews/:id", h.Update)
	rg.DELETE("/reviews/:id", h.Delete)
	rg.PUT("/reviews/:id/approval", h.Approve)
}

func (h *ReviewHandler) Create(c *gin.Context) {
	var input dto.CreateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	input.UserID = auth.UserID(c)

	r, summary, err := h.uc.CreateReview(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": r, "rating": summary})
}

func (h *ReviewHandler) Update(c *gin.Context) {
	var input dto.UpdateReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	input.ReviewID = c.Param("id")
	input.UserID = auth.UserID(c)

	r, summary, err := h.uc.UpdateReview(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": r, "rating": summary})
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	summary, err := h.uc.DeleteReview(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": summary})
}

func (h *ReviewHandler) Approve(c *gin.Context) {
	var input struct {
		Approved bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	r, summary, err := h.uc.ApproveReview(c.Request.Context(), c.Param("id"), input.Approved)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": r, "rating": summary})
}

func (h *ReviewHandler) List(c *gin.Context) {
	filters := &dto.ReviewFilters{
		ProductID:    c.Query("product_id"),
		UserID:       c.Query("user_id"),
		ApprovedOnly: c.Query("approved") == "true",
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}

	reviews, total, err := h.uc.ListReviews(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reviews, "total": total})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
