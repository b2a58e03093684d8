package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

const (
	maxCellFilters        = 32
	defaultTimelineWindow = 30 * time.Minute
	maxTimelineWindow     = 24 * time.Hour
)

type cellRepository interface {
	State(ctx context.Context, q models.CellQuery) ([]models.CellRow, error)
	Objects(ctx context.Context, q models.CellObjectQuery) ([]models.CubeObject, int, error)
	AxisMembers(ctx context.Context, axis models.CellAxis) ([]int64, error)
	Timeline(ctx context.Context, mediaID, tagSetID int64, window time.Duration) ([]models.TimelineEntry, error)
}

// CellService answers faceted browsing queries: a grid of cells spread over
// up to three axes, the medias of one cell and a media's timeline.
type CellService struct {
	repo     cellRepository
	tagSets  tagSetRepository
	medias   mediaRepository
	logger   *zap.Logger
	pageSize pageBounds
}

// NewCellService creates a new cell service.
func NewCellService(repo cellRepository, tagSets tagSetRepository, medias mediaRepository, logger *zap.Logger) *CellService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CellService{repo: repo, tagSets: tagSets, medias: medias, logger: logger}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *CellService) WithPageBounds(defaultSize, maxSize int) *CellService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// State returns every occupied cell for the axes and filters in q.
func (s *CellService) State(ctx context.Context, q models.CellQuery) ([]models.Cell, error) {
	axes := q.Axes()
	for i, axis := range axes {
		if err := s.checkAxis(ctx, "xyz"[i:i+1], axis); err != nil {
			return nil, err
		}
	}
	filters, err := s.checkFilters(ctx, q.Filters)
	if err != nil {
		return nil, err
	}
	q.Filters = filters

	rows, err := s.repo.State(ctx, q)
	if err != nil {
		return nil, appErrors.Storage(err, "load cells")
	}

	var positions [3]map[int64]int
	for i, axis := range axes {
		if !axis.Used() {
			continue
		}
		members, err := s.repo.AxisMembers(ctx, axis)
		if err != nil {
			return nil, appErrors.Storage(err, "load axis members")
		}
		positions[i] = make(map[int64]int, len(members))
		for pos, id := range members {
			positions[i][id] = pos + 1
		}
	}

	cells := make([]models.Cell, 0, len(rows))
	for _, row := range rows {
		keys := [3]int64{row.XKey, row.YKey, row.ZKey}
		var pos [3]int
		for i := range keys {
			if positions[i] != nil {
				pos[i] = positions[i][keys[i]]
			}
		}
		cells = append(cells, models.Cell{
			X: pos[0], Y: pos[1], Z: pos[2],
			Keys:  keys,
			Count: row.Count,
			Cover: models.CubeObject{ID: row.CoverID, FileURI: row.FileURI, ThumbnailURI: row.ThumbnailURI},
		})
	}
	s.logger.Debug("cell state computed", zap.Int("cells", len(cells)), zap.Int("filters", len(filters)))
	return cells, nil
}

// Objects lists the medias matching every filter.
func (s *CellService) Objects(ctx context.Context, q models.CellObjectQuery) ([]models.CubeObject, *models.Pagination, error) {
	filters, err := s.checkFilters(ctx, q.Filters)
	if err != nil {
		return nil, nil, err
	}
	q.Filters = filters
	q.PageRequest = s.pageSize.normalize(q.PageRequest)

	objects, total, err := s.repo.Objects(ctx, q)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "load cell objects")
	}
	if objects == nil {
		objects = []models.CubeObject{}
	}
	return objects, q.Meta(total), nil
}

// Timeline returns the medias stamped in tagSetID within window of the
// media's own timestamp there. A zero window means thirty minutes.
func (s *CellService) Timeline(ctx context.Context, mediaID, tagSetID int64, window time.Duration) ([]models.TimelineEntry, error) {
	if window == 0 {
		window = defaultTimelineWindow
	}
	if window < 0 || window > maxTimelineWindow {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window must be between 0 and %s", maxTimelineWindow))
	}
	if _, err := s.medias.FindByID(ctx, mediaID); err != nil {
		return nil, lookupError(err, "media")
	}
	set, err := s.tagSets.FindByID(ctx, tagSetID)
	if err != nil {
		return nil, referenceError(err, "tagset", tagSetID)
	}
	if set.TagType != models.TagTypeTimestamp {
		return nil, appErrors.Clone(appErrors.ErrTypeMismatch, fmt.Sprintf("tagset %d holds %s tags, not timestamp", set.ID, set.TagType))
	}

	entries, err := s.repo.Timeline(ctx, mediaID, tagSetID, window)
	if err != nil {
		return nil, appErrors.Storage(err, "load timeline")
	}
	if entries == nil {
		entries = []models.TimelineEntry{}
	}
	return entries, nil
}

func (s *CellService) checkAxis(ctx context.Context, name string, axis models.CellAxis) error {
	switch axis.Type {
	case "":
		return nil
	case models.AxisTagSet:
		if axis.ID <= 0 {
			break
		}
		if _, err := s.tagSets.FindByID(ctx, axis.ID); err != nil {
			return referenceError(err, "tagset", axis.ID)
		}
		return nil
	case models.AxisNode:
		if axis.ID > 0 {
			return nil
		}
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("axis %s: unknown type %q", name, axis.Type))
	}
	return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("axis %s: id must be positive", name))
}

// checkFilters validates the filters and resolves range bounds to canonical values.
func (s *CellService) checkFilters(ctx context.Context, filters []models.CellFilter) ([]models.CellFilter, error) {
	if len(filters) > maxCellFilters {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d filters are allowed", maxCellFilters))
	}
	out := make([]models.CellFilter, 0, len(filters))
	for i, f := range filters {
		switch f.Type {
		case models.FilterTag, models.FilterTagSet, models.FilterNode:
			if len(f.IDs) == 0 {
				return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %d: ids are required", i))
			}
			for _, id := range f.IDs {
				if id <= 0 {
					return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %d: ids must be positive", i))
				}
			}
		case models.FilterRange:
			ranges, err := s.resolveRanges(ctx, i, f.Ranges)
			if err != nil {
				return nil, err
			}
			f.Ranges = ranges
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %d: unknown type %q", i, f.Type))
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *CellService) resolveRanges(ctx context.Context, i int, ranges []models.CellRange) ([]models.CellRange, error) {
	if len(ranges) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %d: ranges are required", i))
	}
	resolved := make([]models.CellRange, 0, len(ranges))
	var typ models.TagType
	for _, rg := range ranges {
		set, err := s.tagSets.FindByID(ctx, rg.TagSetID)
		if err != nil {
			return nil, referenceError(err, "tagset", rg.TagSetID)
		}
		if typ != 0 && set.TagType != typ {
			return nil, appErrors.Clone(appErrors.ErrTypeMismatch, fmt.Sprintf("filter %d: ranges span %s and %s tagsets", i, typ, set.TagType))
		}
		typ = set.TagType

		low, err := models.ParseTagValue(typ, rg.Low)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrTypeMismatch.Code, appErrors.ErrTypeMismatch.Status, fmt.Sprintf("filter %d: %s", i, err))
		}
		high, err := models.ParseTagValue(typ, rg.High)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrTypeMismatch.Code, appErrors.ErrTypeMismatch.Status, fmt.Sprintf("filter %d: %s", i, err))
		}
		if inverted(low, high) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter %d: low %q is above high %q", i, low.Text, high.Text))
		}
		resolved = append(resolved, models.CellRange{TagSetID: rg.TagSetID, Low: low.Text, High: high.Text, TagType: typ})
	}
	return resolved, nil
}

// inverted reports whether low sorts after high. Temporal layouts sort
// lexically; alphanumerical order is left to the database collation.
func inverted(low, high models.TagValue) bool {
	switch low.Type {
	case models.TagTypeNumerical:
		return low.Number > high.Number
	case models.TagTypeAlphanumerical:
		return false
	}
	return low.Text > high.Text
}
