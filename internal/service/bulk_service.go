package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

// DefaultBatchSize is used when no batch size is configured.
const DefaultBatchSize = 5000

// Bulk entity names used in acknowledgements, logs and metrics.
const (
	BulkEntityMedias   = "medias"
	BulkEntityTags     = "tags"
	BulkEntityTaggings = "taggings"
)

type bulkRepository interface {
	InsertMedias(ctx context.Context, medias []models.Media) error
	TagSetTypes(ctx context.Context, ids []int64) (map[int64]models.TagType, error)
	InsertTags(ctx context.Context, tags []models.Tag) error
	InsertTaggings(ctx context.Context, taggings []models.Tagging) (int64, error)
}

type mediaNotifier interface {
	NotifyCreated(ctx context.Context, medias ...models.Media)
}

type bulkObserver interface {
	ObserveBulkBatch(entity string, ok bool, rows int64)
}

// BulkTagItem is one tag create-request on a bulk stream. Ref is the
// caller's provisional id, echoed back in the batch id map.
type BulkTagItem struct {
	Ref      models.RawValue `json:"ref"`
	TagSetID int64           `json:"tagset_id" validate:"required,gt=0"`
	TagType  models.TagType  `json:"tag_type" validate:"required"`
	Value    models.RawValue `json:"value"`
}

// BatchAck acknowledges one batch of a bulk stream. Exactly one of Count
// and Error is meaningful; Total accumulates successful rows.
type BatchAck struct {
	Batch int              `json:"batch"`
	Count int64            `json:"count"`
	Total int64            `json:"total"`
	IDMap map[string]int64 `json:"id_map,omitempty"`
	Error *appErrors.Error `json:"error,omitempty"`
}

// StreamSummary describes a finished or interrupted bulk stream.
type StreamSummary struct {
	Batches int   `json:"batches"`
	Failed  int   `json:"failed"`
	Total   int64 `json:"total"`
}

// Source yields the next item of a stream; io.EOF ends it.
type Source[T any] func() (T, error)

// AckSink delivers an acknowledgement to the client.
type AckSink func(BatchAck) error

type batchFunc[T any] func(ctx context.Context, items []T) (BatchAck, error)

// BulkService cuts create-request streams into independently committed batches.
type BulkService struct {
	repo      bulkRepository
	notifier  mediaNotifier
	validator *validator.Validate
	logger    *zap.Logger
	metrics   bulkObserver
	batchSize int
}

// NewBulkService creates a bulk service. notifier and metrics may be nil.
func NewBulkService(repo bulkRepository, notifier mediaNotifier, metrics bulkObserver, batchSize int, validate *validator.Validate, logger *zap.Logger) *BulkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BulkService{repo: repo, notifier: notifier, metrics: metrics, batchSize: batchSize, validator: validate, logger: logger}
}

// BatchSize returns the configured batch size.
func (s *BulkService) BatchSize() int {
	return s.batchSize
}

// IngestMedias bulk-inserts medias and fires media-created hooks for each committed batch.
func (s *BulkService) IngestMedias(ctx context.Context, next Source[CreateMediaRequest], emit AckSink) (StreamSummary, error) {
	return runBatches(ctx, s, BulkEntityMedias, next, s.mediaBatch, emit)
}

// IngestTags bulk-inserts tags and maps each item's ref to its new id.
func (s *BulkService) IngestTags(ctx context.Context, next Source[BulkTagItem], emit AckSink) (StreamSummary, error) {
	return runBatches(ctx, s, BulkEntityTags, next, s.tagBatch, emit)
}

// IngestTaggings bulk-inserts taggings, skipping pairs that already exist.
func (s *BulkService) IngestTaggings(ctx context.Context, next Source[CreateTaggingRequest], emit AckSink) (StreamSummary, error) {
	return runBatches(ctx, s, BulkEntityTaggings, next, s.taggingBatch, emit)
}

// runBatches drains next, flushing every batchSize items and once more at
// EOF. Cancellation and receive errors stop the stream without flushing the
// pending buffer. A failed batch is acknowledged with its error and the
// stream continues.
func runBatches[T any](ctx context.Context, s *BulkService, entity string, next Source[T], flush batchFunc[T], emit AckSink) (StreamSummary, error) {
	var (
		summary StreamSummary
		buf     = make([]T, 0, s.batchSize)
	)

	commit := func() error {
		summary.Batches++
		ack, err := flush(ctx, buf)
		buf = buf[:0]
		ok := err == nil
		if ok {
			summary.Total += ack.Count
		} else {
			summary.Failed++
			ack = BatchAck{Error: appErrors.FromError(err)}
			s.logger.Warn("bulk batch failed",
				zap.String("entity", entity),
				zap.Int("batch", summary.Batches),
				zap.Error(err))
		}
		ack.Batch = summary.Batches
		ack.Total = summary.Total
		if s.metrics != nil {
			s.metrics.ObserveBulkBatch(entity, ok, ack.Count)
		}
		return emit(ack)
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}
		buf = append(buf, item)
		if len(buf) == s.batchSize {
			if err := commit(); err != nil {
				return summary, err
			}
		}
	}

	if len(buf) > 0 {
		if err := commit(); err != nil {
			return summary, err
		}
	}
	s.logger.Info("bulk stream finished",
		zap.String("entity", entity),
		zap.Int("batches", summary.Batches),
		zap.Int("failed", summary.Failed),
		zap.Int64("total", summary.Total))
	return summary, nil
}

func itemError(index int, err error) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErrors.Wrap(err, appErr.Code, appErr.Status, fmt.Sprintf("item %d: %s", index, appErr.Message))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("item %d: %v", index, err))
}

func batchWriteError(err error, entity string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("bulk %s: batch collides with existing rows", entity))
	}
	return writeError(err, "bulk "+entity)
}

func (s *BulkService) mediaBatch(ctx context.Context, items []CreateMediaRequest) (BatchAck, error) {
	medias := make([]models.Media, len(items))
	for i, req := range items {
		if err := s.validator.Struct(req); err != nil {
			return BatchAck{}, itemError(i, err)
		}
		if !req.FileType.Valid() {
			return BatchAck{}, itemError(i, fmt.Errorf("unknown file type %d", req.FileType))
		}
		medias[i] = models.Media{FileURI: req.FileURI, FileType: req.FileType, ThumbnailURI: req.ThumbnailURI}
	}
	if err := s.repo.InsertMedias(ctx, medias); err != nil {
		return BatchAck{}, batchWriteError(err, BulkEntityMedias)
	}
	if s.notifier != nil {
		s.notifier.NotifyCreated(ctx, medias...)
	}
	return BatchAck{Count: int64(len(medias))}, nil
}

func (s *BulkService) tagBatch(ctx context.Context, items []BulkTagItem) (BatchAck, error) {
	seen := make(map[int64]struct{})
	ids := make([]int64, 0)
	for i, item := range items {
		if err := s.validator.Struct(item); err != nil {
			return BatchAck{}, itemError(i, err)
		}
		if _, ok := seen[item.TagSetID]; !ok {
			seen[item.TagSetID] = struct{}{}
			ids = append(ids, item.TagSetID)
		}
	}

	types, err := s.repo.TagSetTypes(ctx, ids)
	if err != nil {
		return BatchAck{}, appErrors.Storage(err, "load tagsets")
	}

	tags := make([]models.Tag, len(items))
	for i, item := range items {
		typ, ok := types[item.TagSetID]
		if !ok {
			return BatchAck{}, itemError(i, appErrors.Clone(appErrors.ErrInvalidReference,
				fmt.Sprintf("tagset %d does not exist", item.TagSetID)))
		}
		if typ != item.TagType {
			return BatchAck{}, itemError(i, appErrors.Clone(appErrors.ErrTypeMismatch,
				fmt.Sprintf("tagset %d holds %s tags, got %s", item.TagSetID, typ, item.TagType)))
		}
		value, err := models.ParseTagValue(item.TagType, item.Value.String())
		if err != nil {
			return BatchAck{}, itemError(i, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		}
		tags[i] = models.Tag{TagSetID: item.TagSetID, TagType: typ, Value: value}
	}

	if err := s.repo.InsertTags(ctx, tags); err != nil {
		return BatchAck{}, batchWriteError(err, BulkEntityTags)
	}

	idMap := make(map[string]int64, len(tags))
	for i, item := range items {
		if ref := item.Ref.String(); ref != "" {
			idMap[ref] = tags[i].ID
		}
	}
	return BatchAck{Count: int64(len(tags)), IDMap: idMap}, nil
}

func (s *BulkService) taggingBatch(ctx context.Context, items []CreateTaggingRequest) (BatchAck, error) {
	taggings := make([]models.Tagging, len(items))
	for i, req := range items {
		if err := s.validator.Struct(req); err != nil {
			return BatchAck{}, itemError(i, err)
		}
		taggings[i] = models.Tagging{MediaID: req.MediaID, TagID: req.TagID}
	}
	inserted, err := s.repo.InsertTaggings(ctx, taggings)
	if err != nil {
		return BatchAck{}, batchWriteError(err, BulkEntityTaggings)
	}
	return BatchAck{Count: inserted}, nil
}
