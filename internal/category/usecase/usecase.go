package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/commerce-service/internal/category"
	"github.com/fekuna/commerce-service/internal/category/dto"
	"github.com/fekuna/commerce-service/internal/errs"
	"github.com/fekuna/commerce-service/internal/model"
	"github.com/fekuna/commerce-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	if input.ParentID != nil {
		parent, err := uc.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, &errs.NotFoundError{Entity: "category", ID: *input.ParentID}
		}
	}

	now := time.Now()
	c := &model.Category{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		ParentID:  input.ParentID,
		Name:      input.Name,
		SortOrder: input.SortOrder,
		IsActive:  true,
	}
	if input.Description != "" {
		c.Description = &input.Description
	}
	if input.ImageURL != "" {
		c.ImageURL = &input.ImageURL
	}

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.logger.Info("category created", zap.String("category_id", c.ID), zap.String("name", c.Name))
	return c, nil
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	c, err := uc.repo.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &errs.NotFoundError{Entity: "category", ID: input.ID}
	}

	if input.ParentID != nil {
		if *input.ParentID == c.ID {
			return nil, &errs.ValidationError{Field: "parent_id", Reason: "category cannot be its own parent"}
		}
		parent, err := uc.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, &errs.NotFoundError{Entity: "category", ID: *input.ParentID}
		}
	}

	if input.Name != "" {
		c.Name = input.Name
	}
	if input.Description != "" {
		c.Description = &input.Description
	}
	if input.ImageURL != "" {
		c.ImageURL = &input.ImageURL
	}
	c.ParentID = input.ParentID
	c.SortOrder = input.SortOrder
	c.IsActive = input.IsActive
	c.UpdatedAt = time.Now()

	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &errs.NotFoundError{Entity: "category", ID: id}
	}
	return c, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// GetCategoryTree fetches all active categories in one query and assembles
// the parent/child hierarchy in memory, roots first.
func (uc *categoryUseCase) GetCategoryTree(ctx context.Context) ([]model.Category, error) {
	flat, err := uc.repo.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	childrenOf := make(map[string][]model.Category)
	for _, c := range flat {
		if c.ParentID != nil {
			childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c)
		}
	}

	var attach func(c model.Category) model.Category
	attach = func(c model.Category) model.Category {
		kids := childrenOf[c.ID]
		sort.SliceStable(kids, func(i, j int) bool { return kids[i].SortOrder < kids[j].SortOrder })
		for _, k := range kids {
			c.Children = append(c.Children, attach(k))
		}
		return c
	}

	var roots []model.Category
	for _, c := range flat {
		if c.ParentID == nil {
			roots = append(roots, attach(c))
		}
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].SortOrder < roots[j].SortOrder })
	return roots, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return &errs.NotFoundError{Entity: "category", ID: id}
	}

	inUse, err := uc.repo.HasProducts(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return &errs.ConflictError{Entity: "category", Reason: "category still has products assigned"}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.logger.Info("category deleted", zap.String("category_id", id))
	return nil
}
