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

type mediaRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Media, error)
	FindByURI(ctx context.Context, uri string) (*models.Media, error)
	Create(ctx context.Context, media *models.Media) error
	List(ctx context.Context, filter models.MediaFilter) ([]models.Media, int, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// MediaCreatedHook observes every newly inserted media. Hooks run inline and must not block.
type MediaCreatedHook func(ctx context.Context, event models.MediaCreatedEvent)

// CreateMediaRequest captures fields for registering a media.
type CreateMediaRequest struct {
	FileURI      string          `json:"file_uri" validate:"required"`
	FileType     models.FileType `json:"file_type" validate:"required"`
	ThumbnailURI string          `json:"thumbnail_uri"`
}

// MediaService implements create-or-get and lookups for medias.
type MediaService struct {
	repo      mediaRepository
	validator *validator.Validate
	logger    *zap.Logger
	hooks     []MediaCreatedHook
	pageSize  pageBounds
}

// NewMediaService creates a new media service.
func NewMediaService(repo mediaRepository, validate *validator.Validate, logger *zap.Logger, hooks ...MediaCreatedHook) *MediaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaService{repo: repo, validator: validate, logger: logger, hooks: hooks}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *MediaService) WithPageBounds(defaultSize, maxSize int) *MediaService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// CreateOrGet returns the media registered for the URI, inserting it when absent.
// The boolean reports whether a row was inserted.
func (s *MediaService) CreateOrGet(ctx context.Context, req CreateMediaRequest) (*models.Media, bool, error) {
	req.FileURI = strings.TrimSpace(req.FileURI)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid media payload")
	}
	if !req.FileType.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown file type %d", req.FileType))
	}
	candidate := models.Media{FileURI: req.FileURI, FileType: req.FileType, ThumbnailURI: req.ThumbnailURI}

	existing, err := s.repo.FindByURI(ctx, req.FileURI)
	switch {
	case err == nil:
		return s.matchExisting(existing, candidate)
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load media")
	}

	media := candidate
	if err := s.repo.Create(ctx, &media); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, writeError(err, "create media")
		}
		existing, ferr := s.repo.FindByURI(ctx, req.FileURI)
		if ferr != nil {
			return nil, false, appErrors.Storage(ferr, "load media")
		}
		return s.matchExisting(existing, candidate)
	}

	s.logger.Debug("media created", zap.Int64("media_id", media.ID), zap.String("file_type", media.FileType.String()))
	s.NotifyCreated(ctx, media)
	return &media, true, nil
}

func (s *MediaService) matchExisting(existing *models.Media, candidate models.Media) (*models.Media, bool, error) {
	if !existing.SameAttributes(candidate) {
		return nil, false, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("media %q already exists with different attributes", candidate.FileURI))
	}
	return existing, false, nil
}

// NotifyCreated fires the media-created hooks for each media.
func (s *MediaService) NotifyCreated(ctx context.Context, medias ...models.Media) {
	if len(s.hooks) == 0 {
		return
	}
	for _, m := range medias {
		event := models.MediaCreatedEvent{ID: m.ID, URI: m.FileURI, FileType: m.FileType, ThumbnailURI: m.ThumbnailURI}
		for _, hook := range s.hooks {
			hook(ctx, event)
		}
	}
}

// Get returns a media by id.
func (s *MediaService) Get(ctx context.Context, id int64) (*models.Media, error) {
	media, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "media")
	}
	return media, nil
}

// GetByURI returns a media by its file uri.
func (s *MediaService) GetByURI(ctx context.Context, uri string) (*models.Media, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "uri is required")
	}
	media, err := s.repo.FindByURI(ctx, uri)
	if err != nil {
		return nil, lookupError(err, "media")
	}
	return media, nil
}

// List returns paginated medias.
func (s *MediaService) List(ctx context.Context, filter models.MediaFilter) ([]models.Media, *models.Pagination, error) {
	filter.PageRequest = s.pageSize.normalize(filter.PageRequest)
	medias, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list medias")
	}
	return medias, filter.Meta(total), nil
}

// Delete removes a media together with its taggings.
func (s *MediaService) Delete(ctx context.Context, id int64) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return lookupError(err, "media")
	}
	s.logger.Info("media deleted", zap.Int64("media_id", id), zap.Int64("taggings_removed", removed))
	return nil
}
