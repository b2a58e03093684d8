package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// PageRequest bounds a list query.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize clamps the request into [1, max] rows starting at page 1.
func (p PageRequest) Normalize(defaultSize, maxSize int) PageRequest {
	if defaultSize <= 0 {
		defaultSize = 100
	}
	if maxSize <= 0 {
		maxSize = 1000
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Meta builds the response pagination block.
func (p PageRequest) Meta(total int) *Pagination {
	return &Pagination{Page: p.Page, PageSize: p.PageSize, TotalCount: total}
}
