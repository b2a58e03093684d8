package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

type taggingRepository interface {
	Create(ctx context.Context, tagging models.Tagging) (bool, error)
	TagIDsOfMedia(ctx context.Context, mediaID int64, page models.PageRequest) ([]int64, int, error)
	MediaIDsWithTag(ctx context.Context, tagID int64, page models.PageRequest) ([]int64, int, error)
	List(ctx context.Context, page models.PageRequest) ([]models.Tagging, int, error)
}

// CreateTaggingRequest associates a media with a tag.
type CreateTaggingRequest struct {
	MediaID int64 `json:"media_id" validate:"required,gt=0"`
	TagID   int64 `json:"tag_id" validate:"required,gt=0"`
}

// TaggingService manages idempotent media/tag associations.
type TaggingService struct {
	repo      taggingRepository
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  pageBounds
}

// NewTaggingService creates a new tagging service.
func NewTaggingService(repo taggingRepository, validate *validator.Validate, logger *zap.Logger) *TaggingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaggingService{repo: repo, validator: validate, logger: logger}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *TaggingService) WithPageBounds(defaultSize, maxSize int) *TaggingService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// Create stores the association; an existing pair is returned unchanged.
// Dangling media or tag ids are rejected as invalid references.
func (s *TaggingService) Create(ctx context.Context, req CreateTaggingRequest) (*models.Tagging, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid tagging payload")
	}
	tagging := models.Tagging{MediaID: req.MediaID, TagID: req.TagID}
	created, err := s.repo.Create(ctx, tagging)
	if err != nil {
		return nil, false, writeError(err, "create tagging")
	}
	return &tagging, created, nil
}

// TagsOfMedia returns the ids of tags attached to a media.
func (s *TaggingService) TagsOfMedia(ctx context.Context, mediaID int64, page models.PageRequest) ([]int64, *models.Pagination, error) {
	page = s.pageSize.normalize(page)
	ids, total, err := s.repo.TagIDsOfMedia(ctx, mediaID, page)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list tags of media")
	}
	return ids, page.Meta(total), nil
}

// MediasWithTag returns the ids of medias carrying a tag.
func (s *TaggingService) MediasWithTag(ctx context.Context, tagID int64, page models.PageRequest) ([]int64, *models.Pagination, error) {
	page = s.pageSize.normalize(page)
	ids, total, err := s.repo.MediaIDsWithTag(ctx, tagID, page)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list medias with tag")
	}
	return ids, page.Meta(total), nil
}

// List returns every tagging, paginated.
func (s *TaggingService) List(ctx context.Context, page models.PageRequest) ([]models.Tagging, *models.Pagination, error) {
	page = s.pageSize.normalize(page)
	taggings, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list taggings")
	}
	return taggings, page.Meta(total), nil
}
