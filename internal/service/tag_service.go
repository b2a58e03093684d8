package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

type tagRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Tag, error)
	FindByValue(ctx context.Context, tagSetID int64, value models.TagValue) (*models.Tag, error)
	Create(ctx context.Context, tag *models.Tag) error
	List(ctx context.Context, filter models.TagFilter) ([]models.Tag, int, error)
}

type tagSetLookup interface {
	FindByID(ctx context.Context, id int64) (*models.TagSet, error)
}

// CreateTagRequest captures fields for creating a tag. Value is the textual
// or numeric form matching TagType.
type CreateTagRequest struct {
	TagSetID int64           `json:"tagset_id" validate:"required,gt=0"`
	TagType  models.TagType  `json:"tag_type" validate:"required"`
	Value    models.RawValue `json:"value"`
}

// TagService deduplicates typed tag values within a tagset.
type TagService struct {
	repo      tagRepository
	tagSets   tagSetLookup
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  pageBounds
}

// NewTagService creates a new tag service.
func NewTagService(repo tagRepository, tagSets tagSetLookup, validate *validator.Validate, logger *zap.Logger) *TagService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagService{repo: repo, tagSets: tagSets, validator: validate, logger: logger}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *TagService) WithPageBounds(defaultSize, maxSize int) *TagService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// CreateOrGet returns the tag holding the value in the tagset, creating it
// when absent. The boolean reports whether a row was inserted.
func (s *TagService) CreateOrGet(ctx context.Context, req CreateTagRequest) (*models.Tag, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid tag payload")
	}

	set, err := s.tagSets.FindByID(ctx, req.TagSetID)
	if err != nil {
		return nil, false, referenceError(err, "tagset", req.TagSetID)
	}
	if req.TagType != set.TagType {
		return nil, false, appErrors.Clone(appErrors.ErrTypeMismatch,
			fmt.Sprintf("tagset %q holds %s tags, got %s", set.Name, set.TagType, req.TagType))
	}

	value, err := models.ParseTagValue(req.TagType, req.Value.String())
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	existing, err := s.repo.FindByValue(ctx, set.ID, value)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load tag")
	}

	tag := &models.Tag{TagSetID: set.ID, TagType: set.TagType, Value: value}
	if err := s.repo.Create(ctx, tag); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, writeError(err, "create tag")
		}
		existing, ferr := s.repo.FindByValue(ctx, set.ID, value)
		if ferr != nil {
			return nil, false, appErrors.Storage(ferr, "load tag")
		}
		return existing, false, nil
	}
	s.logger.Debug("tag created", zap.Int64("tag_id", tag.ID), zap.Int64("tagset_id", tag.TagSetID))
	return tag, true, nil
}

// Get returns a tag by id.
func (s *TagService) Get(ctx context.Context, id int64) (*models.Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "tag")
	}
	return tag, nil
}

// List returns paginated tags.
func (s *TagService) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, *models.Pagination, error) {
	filter.PageRequest = s.pageSize.normalize(filter.PageRequest)
	tags, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list tags")
	}
	return tags, filter.Meta(total), nil
}
