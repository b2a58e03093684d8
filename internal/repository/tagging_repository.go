package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// TaggingRepository handles the media/tag association table.
type TaggingRepository struct {
	db *sqlx.DB
}

// NewTaggingRepository creates a new repository instance.
func NewTaggingRepository(db *sqlx.DB) *TaggingRepository {
	return &TaggingRepository{db: db}
}

// Create inserts the pair unless it already exists. It reports whether a row was added.
func (r *TaggingRepository) Create(ctx context.Context, tagging models.Tagging) (bool, error) {
	const query = `INSERT INTO taggings (object_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, tagging.MediaID, tagging.TagID)
	if err != nil {
		return false, fmt.Errorf("create tagging: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// TagIDsOfMedia returns the ids of tags attached to a media.
func (r *TaggingRepository) TagIDsOfMedia(ctx context.Context, mediaID int64, page models.PageRequest) ([]int64, int, error) {
	return r.projection(ctx, "tag_id", "object_id", mediaID, page)
}

// MediaIDsWithTag returns the ids of medias carrying a tag.
func (r *TaggingRepository) MediaIDsWithTag(ctx context.Context, tagID int64, page models.PageRequest) ([]int64, int, error) {
	return r.projection(ctx, "object_id", "tag_id", tagID, page)
}

func (r *TaggingRepository) projection(ctx context.Context, selectCol, whereCol string, id int64, page models.PageRequest) ([]int64, int, error) {
	ids := []int64{}
	query := fmt.Sprintf(`SELECT %s FROM taggings WHERE %s = $1 ORDER BY %s`, selectCol, whereCol, selectCol) + pageClause(page)
	if err := r.db.SelectContext(ctx, &ids, query, id); err != nil {
		return nil, 0, fmt.Errorf("list taggings by %s: %w", whereCol, err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM taggings WHERE %s = $1`, whereCol), id); err != nil {
		return nil, 0, fmt.Errorf("count taggings by %s: %w", whereCol, err)
	}
	return ids, total, nil
}

// List returns all taggings ordered by media then tag.
func (r *TaggingRepository) List(ctx context.Context, page models.PageRequest) ([]models.Tagging, int, error) {
	taggings := []models.Tagging{}
	query := `SELECT object_id, tag_id FROM taggings ORDER BY object_id, tag_id` + pageClause(page)
	if err := r.db.SelectContext(ctx, &taggings, query); err != nil {
		return nil, 0, fmt.Errorf("list taggings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM taggings`); err != nil {
		return nil, 0, fmt.Errorf("count taggings: %w", err)
	}
	return taggings, total, nil
}
