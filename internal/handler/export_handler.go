package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/pkg/response"
)

type exportService interface {
	MediasCSV(ctx context.Context, w io.Writer, fileType models.FileType) (int, error)
	TaggingsCSV(ctx context.Context, w io.Writer) (int, error)
}

// ExportHandler streams CSV read-back files.
type ExportHandler struct {
	service exportService
	logger  *zap.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{service: svc, logger: logger}
}

// Medias godoc
// @Summary Export medias as CSV
// @Tags Exports
// @Produce text/csv
// @Param file_type query string false "Restrict to one file type"
// @Success 200 {file} file
// @Router /exports/medias.csv [get]
func (h *ExportHandler) Medias(c *gin.Context) {
	fileType, err := queryFileType(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.write(c, "medias.csv", func(w io.Writer) (int, error) {
		return h.service.MediasCSV(c.Request.Context(), w, fileType)
	})
}

// Taggings godoc
// @Summary Export taggings as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Router /exports/taggings.csv [get]
func (h *ExportHandler) Taggings(c *gin.Context) {
	h.write(c, "taggings.csv", func(w io.Writer) (int, error) {
		return h.service.TaggingsCSV(c.Request.Context(), w)
	})
}

// write streams the file; once the header row is out a failure can only be logged.
func (h *ExportHandler) write(c *gin.Context, filename string, stream func(io.Writer) (int, error)) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)

	rows, err := stream(c.Writer)
	if err != nil {
		_ = c.Error(err)
		h.logger.Error("csv export aborted", zap.String("file", filename), zap.Int("rows", rows), zap.Error(err))
	}
}
