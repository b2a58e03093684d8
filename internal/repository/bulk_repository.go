package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// maxBindParams stays under the PostgreSQL limit of 65535 bind parameters per statement.
const maxBindParams = 65000

// BulkRepository executes multi-row inserts, one transaction per call.
type BulkRepository struct {
	db *sqlx.DB
}

// NewBulkRepository creates a new repository instance.
func NewBulkRepository(db *sqlx.DB) *BulkRepository {
	return &BulkRepository{db: db}
}

// valuesClause renders rows tuples of width columns starting at placeholder $offset+1.
func valuesClause(rows, width, offset int) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < width; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", offset+i*width+j+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// chunks splits n rows of width columns into [start, end) ranges that fit one statement.
func chunks(n, width int) [][2]int {
	per := maxBindParams / width
	var out [][2]int
	for start := 0; start < n; start += per {
		end := start + per
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// InsertMedias inserts every media and fills in the generated ids.
func (r *BulkRepository) InsertMedias(ctx context.Context, medias []models.Media) (err error) {
	if len(medias) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk medias: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range chunks(len(medias), 3) {
		part := medias[c[0]:c[1]]
		args := make([]interface{}, 0, len(part)*3)
		for _, m := range part {
			args = append(args, m.FileURI, m.FileType, m.ThumbnailURI)
		}
		query := `INSERT INTO medias (file_uri, file_type, thumbnail_uri) VALUES ` + valuesClause(len(part), 3, 0) + ` RETURNING id`
		ids := make([]int64, 0, len(part))
		if err = sqlx.SelectContext(ctx, tx, &ids, query, args...); err != nil {
			return fmt.Errorf("bulk insert medias: %w", err)
		}
		if len(ids) != len(part) {
			err = fmt.Errorf("bulk insert medias: expected %d ids, got %d", len(part), len(ids))
			return err
		}
		for i := range part {
			part[i].ID = ids[i]
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk medias: %w", err)
	}
	return nil
}

// TagSetTypes returns the tag type of every existing tagset among ids.
func (r *BulkRepository) TagSetTypes(ctx context.Context, ids []int64) (map[int64]models.TagType, error) {
	out := make(map[int64]models.TagType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT id, tagtype_id FROM tagsets WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load tagset types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			typ models.TagType
		)
		if err := rows.Scan(&id, &typ); err != nil {
			return nil, fmt.Errorf("scan tagset type: %w", err)
		}
		out[id] = typ
	}
	return out, rows.Err()
}

// InsertTags preallocates ids from the tags sequence, inserts the tag rows and
// then the value rows grouped by type. Ids are written back into tags.
func (r *BulkRepository) InsertTags(ctx context.Context, tags []models.Tag) (err error) {
	if len(tags) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk tags: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ids := make([]int64, 0, len(tags))
	const allocate = `SELECT nextval(pg_get_serial_sequence('tags', 'id')) FROM generate_series(1, $1)`
	if err = sqlx.SelectContext(ctx, tx, &ids, allocate, len(tags)); err != nil {
		return fmt.Errorf("allocate tag ids: %w", err)
	}
	if len(ids) != len(tags) {
		err = fmt.Errorf("allocate tag ids: expected %d, got %d", len(tags), len(ids))
		return err
	}
	for i := range tags {
		tags[i].ID = ids[i]
	}

	for _, c := range chunks(len(tags), 3) {
		part := tags[c[0]:c[1]]
		args := make([]interface{}, 0, len(part)*3)
		for _, t := range part {
			args = append(args, t.ID, t.TagType, t.TagSetID)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO tags (id, tagtype_id, tagset_id) VALUES `+valuesClause(len(part), 3, 0), args...); err != nil {
			return fmt.Errorf("bulk insert tags: %w", err)
		}
	}

	byType := make(map[models.TagType][]models.Tag)
	for _, t := range tags {
		byType[t.TagType] = append(byType[t.TagType], t)
	}
	for _, typ := range models.TagTypes {
		group := byType[typ]
		if len(group) == 0 {
			continue
		}
		for _, c := range chunks(len(group), 3) {
			part := group[c[0]:c[1]]
			args := make([]interface{}, 0, len(part)*3)
			for _, t := range part {
				args = append(args, t.ID, t.Value.StorageArg(), t.TagSetID)
			}
			query := `INSERT INTO ` + typ.ValueTable() + ` (id, name, tagset_id) VALUES ` + valuesClause(len(part), 3, 0)
			if _, err = tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("bulk insert %s values: %w", typ, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk tags: %w", err)
	}
	return nil
}

// InsertTaggings inserts the pairs, skipping existing ones, and returns the
// number of rows actually added.
func (r *BulkRepository) InsertTaggings(ctx context.Context, taggings []models.Tagging) (inserted int64, err error) {
	if len(taggings) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk taggings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, c := range chunks(len(taggings), 2) {
		part := taggings[c[0]:c[1]]
		args := make([]interface{}, 0, len(part)*2)
		for _, t := range part {
			args = append(args, t.MediaID, t.TagID)
		}
		res, execErr := tx.ExecContext(ctx, `INSERT INTO taggings (object_id, tag_id) VALUES `+valuesClause(len(part), 2, 0)+` ON CONFLICT DO NOTHING`, args...)
		if execErr != nil {
			err = fmt.Errorf("bulk insert taggings: %w", execErr)
			return 0, err
		}
		n, _ := res.RowsAffected()
		inserted += n
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk taggings: %w", err)
	}
	return inserted, nil
}
