package dto

type ProductFilters struct {
	CategoryID  string
	IsActive    *bool
	SearchQuery string // name or sku search
	SortBy      string // name, price, created_at, rating
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
