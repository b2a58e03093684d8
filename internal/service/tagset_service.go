package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

type tagSetRepository interface {
	FindByID(ctx context.Context, id int64) (*models.TagSet, error)
	FindByName(ctx context.Context, name string) (*models.TagSet, error)
	Create(ctx context.Context, set *models.TagSet) error
	List(ctx context.Context, filter models.TagSetFilter) ([]models.TagSet, int, error)
}

// CreateTagSetRequest captures fields for creating a tagset.
type CreateTagSetRequest struct {
	Name    string         `json:"name" validate:"required"`
	TagType models.TagType `json:"tag_type" validate:"required"`
}

// TagSetService manages named, typed tag collections.
type TagSetService struct {
	repo      tagSetRepository
	validator *validator.Validate
	logger    *zap.Logger
	pageSize  pageBounds
}

// NewTagSetService creates a new tagset service.
func NewTagSetService(repo tagSetRepository, validate *validator.Validate, logger *zap.Logger) *TagSetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagSetService{repo: repo, validator: validate, logger: logger}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *TagSetService) WithPageBounds(defaultSize, maxSize int) *TagSetService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// CreateOrGet returns the tagset with the given name, creating it when absent.
// An existing tagset of another type is a conflict.
func (s *TagSetService) CreateOrGet(ctx context.Context, req CreateTagSetRequest) (*models.TagSet, bool, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid tagset payload")
	}
	if !req.TagType.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown tag type %d", req.TagType))
	}

	existing, err := s.repo.FindByName(ctx, req.Name)
	switch {
	case err == nil:
		return s.matchExisting(existing, req.TagType)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load tagset")
	}

	set := &models.TagSet{Name: req.Name, TagType: req.TagType}
	if err := s.repo.Create(ctx, set); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, writeError(err, "create tagset")
		}
		existing, ferr := s.repo.FindByName(ctx, req.Name)
		if ferr != nil {
			return nil, false, appErrors.Storage(ferr, "load tagset")
		}
		return s.matchExisting(existing, req.TagType)
	}
	s.logger.Debug("tagset created", zap.Int64("tagset_id", set.ID), zap.String("name", set.Name))
	return set, true, nil
}

func (s *TagSetService) matchExisting(existing *models.TagSet, typ models.TagType) (*models.TagSet, bool, error) {
	if existing.TagType != typ {
		return nil, false, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("tagset %q already exists with type %s", existing.Name, existing.TagType))
	}
	return existing, false, nil
}

// Get returns a tagset by id.
func (s *TagSetService) Get(ctx context.Context, id int64) (*models.TagSet, error) {
	set, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "tagset")
	}
	return set, nil
}

// GetByName returns a tagset by name.
func (s *TagSetService) GetByName(ctx context.Context, name string) (*models.TagSet, error) {
	set, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, lookupError(err, "tagset")
	}
	return set, nil
}

// List returns paginated tagsets.
func (s *TagSetService) List(ctx context.Context, filter models.TagSetFilter) ([]models.TagSet, *models.Pagination, error) {
	filter.PageRequest = s.pageSize.normalize(filter.PageRequest)
	sets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list tagsets")
	}
	return sets, filter.Meta(total), nil
}
