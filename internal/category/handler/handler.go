package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/commerce-service/internal/category"
	"github.com/fekuna/commerce-service/internal/category/dto"
	"github.com/fekuna/commerce-service/internal/delivery/respond"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{uc: uc, logger: log}
}

func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/categories", h.Create)
	rg.GET("/categories", h.List)
	rg.GET("/categories/tree", h.Tree)
	rg.GET("/categories/:id", h.Get)
	rg.PUT("/categories/:id", h.Update)
	rg.DELETE("/categories/:id", h.Delete)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var input dto.CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}

	cat, err := h.uc.CreateCategory(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Get(c *gin.Context) {
	cat, err := h.uc.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) List(c *gin.Context) {
	filters := &dto.CategoryFilters{
		Page:     1,
		PageSize: 50,
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.Page = n
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filters.PageSize = n
		}
	}
	if v, ok := c.GetQuery("parent_id"); ok {
		filters.ParentID = &v
	}
	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}

	categories, total, err := h.uc.ListCategories(c.Request.Context(), filters)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": categories, "total": total})
}

func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.uc.GetCategoryTree(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var input dto.UpdateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, err)
		return
	}
	input.ID = c.Param("id")

	cat, err := h.uc.UpdateCategory(c.Request.Context(), &input)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.uc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
