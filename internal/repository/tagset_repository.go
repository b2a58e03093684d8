package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// TagSetRepository handles persistence for tagsets.
type TagSetRepository struct {
	db *sqlx.DB
}

// NewTagSetRepository creates a new repository instance.
func NewTagSetRepository(db *sqlx.DB) *TagSetRepository {
	return &TagSetRepository{db: db}
}

// FindByID returns a tagset by id.
func (r *TagSetRepository) FindByID(ctx context.Context, id int64) (*models.TagSet, error) {
	var set models.TagSet
	if err := r.db.GetContext(ctx, &set, `SELECT id, name, tagtype_id FROM tagsets WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &set, nil
}

// FindByName returns a tagset by its unique name.
func (r *TagSetRepository) FindByName(ctx context.Context, name string) (*models.TagSet, error) {
	var set models.TagSet
	if err := r.db.GetContext(ctx, &set, `SELECT id, name, tagtype_id FROM tagsets WHERE name = $1`, name); err != nil {
		return nil, err
	}
	return &set, nil
}

// Create persists a new tagset and sets its id.
func (r *TagSetRepository) Create(ctx context.Context, set *models.TagSet) error {
	const query = `INSERT INTO tagsets (name, tagtype_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, set.Name, set.TagType).Scan(&set.ID); err != nil {
		return fmt.Errorf("create tagset: %w", err)
	}
	return nil
}

// List returns tagsets, optionally restricted to one tag type.
func (r *TagSetRepository) List(ctx context.Context, filter models.TagSetFilter) ([]models.TagSet, int, error) {
	var cond conditions
	if filter.TagType != 0 {
		cond.add("tagtype_id = $%d", filter.TagType)
	}

	sets := []models.TagSet{}
	query := `SELECT id, name, tagtype_id FROM tagsets` + cond.where() + ` ORDER BY id` + pageClause(filter.PageRequest)
	if err := r.db.SelectContext(ctx, &sets, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list tagsets: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tagsets`+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count tagsets: %w", err)
	}
	return sets, total, nil
}
