package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// tagValueJoins attaches every value table to the tags row aliased t.
const tagValueJoins = `
LEFT JOIN alphanumerical_tags a ON a.id = t.id
LEFT JOIN timestamp_tags ts ON ts.id = t.id
LEFT JOIN time_tags tm ON tm.id = t.id
LEFT JOIN date_tags d ON d.id = t.id
LEFT JOIN numerical_tags n ON n.id = t.id`

// tagValueOrder sorts tags by their native value; only one column is non-null per row.
const tagValueOrder = ` ORDER BY n.name, ts.name, tm.name, d.name, a.name, t.id`

// tagSelect joins a tag with whichever value table holds its value.
const tagSelect = `SELECT t.id, t.tagset_id, t.tagtype_id,
COALESCE(a.name, ts.name::text, tm.name::text, d.name::text, n.name::text) AS value
FROM tags t` + tagValueJoins

// TagRepository maps the tag union onto the tags table and the five value tables.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new repository instance.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

// FindByID returns a tag with its value.
func (r *TagRepository) FindByID(ctx context.Context, id int64) (*models.Tag, error) {
	var rec models.TagRecord
	if err := r.db.GetContext(ctx, &rec, tagSelect+` WHERE t.id = $1`, id); err != nil {
		return nil, err
	}
	tag, err := rec.ToTag()
	if err != nil {
		return nil, fmt.Errorf("decode tag %d: %w", id, err)
	}
	return &tag, nil
}

// FindByValue returns the tag holding value inside the tagset.
func (r *TagRepository) FindByValue(ctx context.Context, tagSetID int64, value models.TagValue) (*models.Tag, error) {
	table := value.Type.ValueTable()
	if table == "" {
		return nil, fmt.Errorf("unknown tag type %d", value.Type)
	}
	query := fmt.Sprintf(`SELECT t.id, t.tagset_id, t.tagtype_id, v.name::text AS value FROM tags t JOIN %s v ON v.id = t.id WHERE v.tagset_id = $1 AND v.name = $2`, table)
	var rec models.TagRecord
	if err := r.db.GetContext(ctx, &rec, query, tagSetID, value.StorageArg()); err != nil {
		return nil, err
	}
	tag, err := rec.ToTag()
	if err != nil {
		return nil, fmt.Errorf("decode tag %d: %w", rec.ID, err)
	}
	return &tag, nil
}

// Create inserts the tag row and its value row atomically and sets tag.ID.
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) (err error) {
	table := tag.TagType.ValueTable()
	if table == "" {
		return fmt.Errorf("unknown tag type %d", tag.TagType)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create tag: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx, `INSERT INTO tags (tagtype_id, tagset_id) VALUES ($1, $2) RETURNING id`, tag.TagType, tag.TagSetID).Scan(&tag.ID); err != nil {
		return fmt.Errorf("create tag: %w", err)
	}
	insertValue := fmt.Sprintf(`INSERT INTO %s (id, name, tagset_id) VALUES ($1, $2, $3)`, table)
	if _, err = tx.ExecContext(ctx, insertValue, tag.ID, tag.Value.StorageArg(), tag.TagSetID); err != nil {
		return fmt.Errorf("create %s value: %w", tag.TagType, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create tag: %w", err)
	}
	return nil
}

// List returns tags with their values, filtered by type and/or tagset.
func (r *TagRepository) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, int, error) {
	var cond conditions
	if filter.TagType != 0 {
		cond.add("t.tagtype_id = $%d", filter.TagType)
	}
	if filter.TagSetID != 0 {
		cond.add("t.tagset_id = $%d", filter.TagSetID)
	}

	var records []models.TagRecord
	query := tagSelect + cond.where() + ` ORDER BY t.id` + pageClause(filter.PageRequest)
	if err := r.db.SelectContext(ctx, &records, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(records))
	for _, rec := range records {
		tag, err := rec.ToTag()
		if err != nil {
			return nil, 0, fmt.Errorf("decode tag %d: %w", rec.ID, err)
		}
		tags = append(tags, tag)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM tags t`+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}
	return tags, total, nil
}
