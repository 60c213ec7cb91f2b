package dto

type CreateCategoryInput struct {
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	SortOrder   int     `json:"sort_order"`
}

type UpdateCategoryInput struct {
	ID          string  `json:"-"`
	ParentID    *string `json:"parent_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	SortOrder   int     `json:"sort_order"`
	IsActive    bool    `json:"is_active"`
}

type CategoryFilters struct {
	ParentID *string
	IsActive *bool
	Page     int
	PageSize int
}
