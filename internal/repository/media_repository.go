package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

const mediaColumns = "id, file_uri, file_type, thumbnail_uri"

// MediaRepository handles persistence for medias.
type MediaRepository struct {
	db *sqlx.DB
}

// NewMediaRepository creates a new repository instance.
func NewMediaRepository(db *sqlx.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// FindByID returns a media by id.
func (r *MediaRepository) FindByID(ctx context.Context, id int64) (*models.Media, error) {
	var media models.Media
	if err := r.db.GetContext(ctx, &media, `SELECT `+mediaColumns+` FROM medias WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &media, nil
}

// FindByURI returns a media by its file uri.
func (r *MediaRepository) FindByURI(ctx context.Context, uri string) (*models.Media, error) {
	var media models.Media
	if err := r.db.GetContext(ctx, &media, `SELECT `+mediaColumns+` FROM medias WHERE file_uri = $1`, uri); err != nil {
		return nil, err
	}
	return &media, nil
}

// Create persists a new media and sets its id.
func (r *MediaRepository) Create(ctx context.Context, media *models.Media) error {
	const query = `INSERT INTO medias (file_uri, file_type, thumbnail_uri) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, media.FileURI, media.FileType, media.ThumbnailURI).Scan(&media.ID); err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

// List returns medias matching filters ordered by id.
func (r *MediaRepository) List(ctx context.Context, filter models.MediaFilter) ([]models.Media, int, error) {
	var cond conditions
	if filter.FileType != 0 {
		cond.add("file_type = $%d", filter.FileType)
	}

	query := `SELECT ` + mediaColumns + ` FROM medias` + cond.where() + ` ORDER BY id` + pageClause(filter.PageRequest)
	medias := []models.Media{}
	if err := r.db.SelectContext(ctx, &medias, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list medias: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medias`+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count medias: %w", err)
	}
	return medias, total, nil
}

// Delete removes a media and every tagging referencing it in one transaction.
// It returns sql.ErrNoRows when the media does not exist.
func (r *MediaRepository) Delete(ctx context.Context, id int64) (removedTaggings int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete media: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM taggings WHERE object_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete media taggings: %w", err)
	}
	removedTaggings, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM medias WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = sql.ErrNoRows
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete media: %w", err)
	}
	return removedTaggings, nil
}
