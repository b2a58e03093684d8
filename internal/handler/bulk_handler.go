package handler

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/service"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/middleware/requestid"
)

const (
	ndjsonContentType   = "application/x-ndjson"
	defaultMaxLineBytes = 1 << 20
)

type bulkService interface {
	IngestMedias(ctx context.Context, next service.Source[service.CreateMediaRequest], emit service.AckSink) (service.StreamSummary, error)
	IngestTags(ctx context.Context, next service.Source[service.BulkTagItem], emit service.AckSink) (service.StreamSummary, error)
	IngestTaggings(ctx context.Context, next service.Source[service.CreateTaggingRequest], emit service.AckSink) (service.StreamSummary, error)
}

type ingestFunc[T any] func(ctx context.Context, next service.Source[T], emit service.AckSink) (service.StreamSummary, error)

// streamResult is the last line of every bulk response.
type streamResult struct {
	Summary service.StreamSummary `json:"summary"`
	Error   *appErrors.Error      `json:"error,omitempty"`
}

// BulkHandler serves the NDJSON bulk ingest endpoints. The request body is
// read line by line while acknowledgements are flushed back per batch.
type BulkHandler struct {
	service      bulkService
	maxLineBytes int
	logger       *zap.Logger
}

// NewBulkHandler constructs a bulk handler; maxLineBytes bounds one request line.
func NewBulkHandler(svc bulkService, maxLineBytes int, logger *zap.Logger) *BulkHandler {
	if maxLineBytes <= 0 {
		maxLineBytes = defaultMaxLineBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkHandler{service: svc, maxLineBytes: maxLineBytes, logger: logger}
}

// Medias godoc
// @Summary Bulk create medias
// @Description Body is NDJSON, one CreateMediaRequest per line. Response is NDJSON: one ack per batch, then a summary line.
// @Tags Bulk
// @Accept application/x-ndjson
// @Produce application/x-ndjson
// @Success 200 {object} service.BatchAck
// @Router /bulk/medias [post]
func (h *BulkHandler) Medias(c *gin.Context) {
	runStream[service.CreateMediaRequest](h, c, service.BulkEntityMedias, h.service.IngestMedias)
}

// Tags godoc
// @Summary Bulk create tags
// @Description Body is NDJSON, one BulkTagItem per line. Acks carry id_map from each item's ref to its new id.
// @Tags Bulk
// @Accept application/x-ndjson
// @Produce application/x-ndjson
// @Success 200 {object} service.BatchAck
// @Router /bulk/tags [post]
func (h *BulkHandler) Tags(c *gin.Context) {
	runStream[service.BulkTagItem](h, c, service.BulkEntityTags, h.service.IngestTags)
}

// Taggings godoc
// @Summary Bulk create taggings
// @Description Body is NDJSON, one CreateTaggingRequest per line. Existing pairs are skipped.
// @Tags Bulk
// @Accept application/x-ndjson
// @Produce application/x-ndjson
// @Success 200 {object} service.BatchAck
// @Router /bulk/taggings [post]
func (h *BulkHandler) Taggings(c *gin.Context) {
	runStream[service.CreateTaggingRequest](h, c, service.BulkEntityTaggings, h.service.IngestTaggings)
}

func runStream[T any](h *BulkHandler, c *gin.Context, entity string, ingest ingestFunc[T]) {
	log := h.logger.With(zap.String("entity", entity), zap.String("request_id", requestid.Value(c)))

	// Acks are written while the body is still being read.
	if err := http.NewResponseController(c.Writer).EnableFullDuplex(); err != nil {
		log.Debug("full duplex unavailable", zap.Error(err))
	}
	c.Header("Content-Type", ndjsonContentType)
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	enc := sonic.ConfigDefault.NewEncoder(c.Writer)
	emit := func(ack service.BatchAck) error {
		if err := enc.Encode(ack); err != nil {
			return fmt.Errorf("write ack: %w", err)
		}
		c.Writer.Flush()
		return nil
	}

	summary, err := ingest(c.Request.Context(), lineSource[T](c.Request.Body, h.maxLineBytes), emit)
	result := streamResult{Summary: summary}
	if err != nil {
		result.Error = streamError(err)
		log.Warn("bulk stream interrupted", zap.Int("batches", summary.Batches), zap.Error(err))
	}
	if werr := enc.Encode(result); werr != nil {
		log.Debug("bulk summary not delivered", zap.Error(werr))
		return
	}
	c.Writer.Flush()
}

// lineSource decodes one T per non-blank NDJSON line.
func lineSource[T any](body io.Reader, maxLineBytes int) service.Source[T] {
	initial := 64 * 1024
	if maxLineBytes < initial {
		initial = maxLineBytes
	}
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, initial), maxLineBytes)
	line := 0
	return func() (T, error) {
		var item T
		for scanner.Scan() {
			line++
			raw := bytes.TrimSpace(scanner.Bytes())
			if len(raw) == 0 {
				continue
			}
			if err := sonic.Unmarshal(raw, &item); err != nil {
				return item, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
					fmt.Sprintf("line %d: malformed json", line))
			}
			return item, nil
		}
		if err := scanner.Err(); err != nil {
			if errors.Is(err, bufio.ErrTooLong) {
				return item, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
					fmt.Sprintf("line %d exceeds %d bytes", line+1, maxLineBytes))
			}
			return item, err
		}
		return item, io.EOF
	}
}

func streamError(err error) *appErrors.Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "stream cancelled")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "read stream: "+err.Error())
}
