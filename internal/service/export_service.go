package service

import (
	"context"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
	"github.com/noah-isme/m3-catalog/pkg/export"
)

type mediaLister interface {
	List(ctx context.Context, filter models.MediaFilter) ([]models.Media, int, error)
}

type taggingLister interface {
	List(ctx context.Context, page models.PageRequest) ([]models.Tagging, int, error)
}

type csvStreamer interface {
	Stream(w io.Writer, headers []string, next export.RowSource) (int, error)
}

var (
	mediaCSVHeaders   = []string{"id", "file_uri", "file_type", "thumbnail_uri"}
	taggingCSVHeaders = []string{"media_id", "tag_id"}
)

// ExportService streams catalog read-back data as CSV for import/export tooling.
type ExportService struct {
	medias   mediaLister
	taggings taggingLister
	csv      csvStreamer
	pageSize int
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(medias mediaLister, taggings taggingLister, csv csvStreamer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter(maxPageSize)
	}
	return &ExportService{medias: medias, taggings: taggings, csv: csv, pageSize: maxPageSize, logger: logger}
}

// MediasCSV writes every media, optionally restricted to one file type.
func (s *ExportService) MediasCSV(ctx context.Context, w io.Writer, fileType models.FileType) (int, error) {
	next := pagedRows(ctx, s.pageSize, func(ctx context.Context, page models.PageRequest) ([]models.Media, error) {
		items, _, err := s.medias.List(ctx, models.MediaFilter{FileType: fileType, PageRequest: page})
		return items, err
	}, func(m models.Media) []string {
		return []string{strconv.FormatInt(m.ID, 10), m.FileURI, m.FileType.String(), m.ThumbnailURI}
	})
	return s.stream(w, "medias", mediaCSVHeaders, next)
}

// TaggingsCSV writes every tagging.
func (s *ExportService) TaggingsCSV(ctx context.Context, w io.Writer) (int, error) {
	next := pagedRows(ctx, s.pageSize, func(ctx context.Context, page models.PageRequest) ([]models.Tagging, error) {
		items, _, err := s.taggings.List(ctx, page)
		return items, err
	}, func(t models.Tagging) []string {
		return []string{strconv.FormatInt(t.MediaID, 10), strconv.FormatInt(t.TagID, 10)}
	})
	return s.stream(w, "taggings", taggingCSVHeaders, next)
}

func (s *ExportService) stream(w io.Writer, name string, headers []string, next export.RowSource) (int, error) {
	n, err := s.csv.Stream(w, headers, next)
	if err != nil {
		return n, appErrors.Storage(err, "export "+name)
	}
	s.logger.Info("csv export written", zap.String("dataset", name), zap.Int("rows", n))
	return n, nil
}

// pagedRows walks fetch page by page until a short page, rendering each item.
func pagedRows[T any](ctx context.Context, size int, fetch func(context.Context, models.PageRequest) ([]T, error), render func(T) []string) export.RowSource {
	var (
		buf  []T
		page = 0
		done bool
	)
	return func() ([]string, error) {
		for len(buf) == 0 {
			if done {
				return nil, io.EOF
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			page++
			items, err := fetch(ctx, models.PageRequest{Page: page, PageSize: size})
			if err != nil {
				return nil, err
			}
			buf = items
			done = len(items) < size
		}
		item := buf[0]
		buf = buf[1:]
		return render(item), nil
	}
}
