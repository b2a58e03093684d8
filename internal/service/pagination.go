package service

import "github.com/noah-isme/m3-catalog/internal/models"

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// pageBounds holds the configured page sizes; zero values fall back to the defaults.
type pageBounds struct {
	defaultSize int
	maxSize     int
}

func (b pageBounds) normalize(p models.PageRequest) models.PageRequest {
	size, limit := b.defaultSize, b.maxSize
	if size <= 0 {
		size = defaultPageSize
	}
	if limit <= 0 {
		limit = maxPageSize
	}
	return p.Normalize(size, limit)
}
