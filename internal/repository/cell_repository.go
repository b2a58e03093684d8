package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/m3-catalog/internal/models"
)

// subtreeTags expands the nodes selected by %s into the tags of their whole subtrees.
const subtreeTags = `WITH RECURSIVE sub AS (
SELECT id, tag_id FROM nodes WHERE %s
UNION ALL
SELECT c.id, c.tag_id FROM nodes c JOIN sub ON c.parentnode_id = sub.id)
SELECT tag_id FROM sub`

// CellRepository answers faceted browsing queries over taggings and hierarchies.
type CellRepository struct {
	db *sqlx.DB
}

// NewCellRepository creates a new repository instance.
func NewCellRepository(db *sqlx.DB) *CellRepository {
	return &CellRepository{db: db}
}

// bindings numbers positional arguments across a query assembled from parts.
type bindings struct {
	args []interface{}
}

func (b *bindings) bind(v interface{}) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func axisSource(b *bindings, axis models.CellAxis) (string, error) {
	switch axis.Type {
	case models.AxisTagSet:
		return `SELECT r.object_id, r.tag_id AS coord FROM taggings r JOIN tags t ON t.id = r.tag_id WHERE t.tagset_id = ` + b.bind(axis.ID), nil
	case models.AxisNode:
		return `WITH RECURSIVE sub AS (
SELECT id AS root_id, id, tag_id FROM nodes WHERE parentnode_id = ` + b.bind(axis.ID) + `
UNION ALL
SELECT sub.root_id, c.id, c.tag_id FROM nodes c JOIN sub ON c.parentnode_id = sub.id)
SELECT DISTINCT r.object_id, sub.root_id AS coord FROM sub JOIN taggings r ON r.tag_id = sub.tag_id`, nil
	}
	return "", fmt.Errorf("unknown axis type %q", axis.Type)
}

func filterSource(b *bindings, f models.CellFilter) (string, error) {
	switch f.Type {
	case models.FilterTag:
		return `SELECT DISTINCT object_id FROM taggings WHERE tag_id = ANY(` + b.bind(pq.Array(f.IDs)) + `)`, nil
	case models.FilterTagSet:
		return `SELECT DISTINCT r.object_id FROM taggings r JOIN tags t ON t.id = r.tag_id WHERE t.tagset_id = ANY(` + b.bind(pq.Array(f.IDs)) + `)`, nil
	case models.FilterNode:
		nodes := fmt.Sprintf(subtreeTags, "id = ANY("+b.bind(pq.Array(f.IDs))+")")
		return `SELECT DISTINCT object_id FROM taggings WHERE tag_id IN (` + nodes + `)`, nil
	case models.FilterRange:
		if len(f.Ranges) == 0 {
			return "", fmt.Errorf("range filter without ranges")
		}
		var table string
		ors := make([]string, 0, len(f.Ranges))
		for _, rg := range f.Ranges {
			t := rg.TagType.ValueTable()
			if t == "" || (table != "" && t != table) {
				return "", fmt.Errorf("range filter mixes or lacks tag types")
			}
			table = t
			ors = append(ors, fmt.Sprintf("(v.tagset_id = %s AND v.name BETWEEN %s AND %s)",
				b.bind(rg.TagSetID), b.bind(rg.Low), b.bind(rg.High)))
		}
		return `SELECT DISTINCT r.object_id FROM taggings r JOIN ` + table + ` v ON v.id = r.tag_id WHERE ` + strings.Join(ors, " OR "), nil
	}
	return "", fmt.Errorf("unknown filter type %q", f.Type)
}

// filterJoins renders one inner join per filter against medias m.
func filterJoins(b *bindings, filters []models.CellFilter) (string, error) {
	var sb strings.Builder
	for i, f := range filters {
		src, err := filterSource(b, f)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\nJOIN (%s) f%d ON f%d.object_id = m.id", src, i, i)
	}
	return sb.String(), nil
}

// State groups the filtered medias by their axis coordinates. Each row carries
// the media count of the cell and the highest media id as its cover.
func (r *CellRepository) State(ctx context.Context, q models.CellQuery) ([]models.CellRow, error) {
	var b bindings
	keys := [3]string{"0", "0", "0"}
	var joins strings.Builder
	var groups []string
	for i, axis := range q.Axes() {
		if !axis.Used() {
			continue
		}
		src, err := axisSource(&b, axis)
		if err != nil {
			return nil, err
		}
		alias := fmt.Sprintf("a%d", i)
		fmt.Fprintf(&joins, "\nJOIN (%s) %s ON %s.object_id = m.id", src, alias, alias)
		keys[i] = alias + ".coord"
		groups = append(groups, keys[i])
	}
	filters, err := filterJoins(&b, q.Filters)
	if err != nil {
		return nil, err
	}

	group := ""
	if len(groups) > 0 {
		group = " GROUP BY " + strings.Join(groups, ", ")
	}
	query := fmt.Sprintf(`SELECT g.x_key, g.y_key, g.z_key, g.count, g.cover_id, c.file_uri, c.thumbnail_uri
FROM (SELECT %s AS x_key, %s AS y_key, %s AS z_key, COUNT(DISTINCT m.id) AS count, MAX(m.id) AS cover_id
FROM medias m%s%s%s) g
JOIN medias c ON c.id = g.cover_id
ORDER BY g.x_key, g.y_key, g.z_key`, keys[0], keys[1], keys[2], joins.String(), filters, group)

	var rows []models.CellRow
	if err := r.db.SelectContext(ctx, &rows, query, b.args...); err != nil {
		return nil, fmt.Errorf("cell state: %w", err)
	}
	return rows, nil
}

// Objects lists the medias matching every filter, ordered by id.
func (r *CellRepository) Objects(ctx context.Context, q models.CellObjectQuery) ([]models.CubeObject, int, error) {
	var b bindings
	filters, err := filterJoins(&b, q.Filters)
	if err != nil {
		return nil, 0, err
	}

	var objects []models.CubeObject
	query := `SELECT m.id, m.file_uri, m.thumbnail_uri FROM medias m` + filters + ` ORDER BY m.id` + pageClause(q.PageRequest)
	if err := r.db.SelectContext(ctx, &objects, query, b.args...); err != nil {
		return nil, 0, fmt.Errorf("cell objects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medias m`+filters, b.args...); err != nil {
		return nil, 0, fmt.Errorf("count cell objects: %w", err)
	}
	return objects, total, nil
}

// AxisMembers returns the coordinate keys of an axis in display order: the
// tags of a tagset or the children of a node, sorted by tag value.
func (r *CellRepository) AxisMembers(ctx context.Context, axis models.CellAxis) ([]int64, error) {
	var query string
	switch axis.Type {
	case models.AxisTagSet:
		query = `SELECT t.id FROM tags t` + tagValueJoins + ` WHERE t.tagset_id = $1` + tagValueOrder
	case models.AxisNode:
		query = `SELECT nd.id FROM nodes nd JOIN tags t ON t.id = nd.tag_id` + tagValueJoins + ` WHERE nd.parentnode_id = $1` + tagValueOrder
	default:
		return nil, fmt.Errorf("unknown axis type %q", axis.Type)
	}
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, axis.ID); err != nil {
		return nil, fmt.Errorf("axis members: %w", err)
	}
	return ids, nil
}

// Timeline returns the medias whose timestamp in the tagset lies within
// window of the earliest timestamp the anchor media carries there.
func (r *CellRepository) Timeline(ctx context.Context, mediaID, tagSetID int64, window time.Duration) ([]models.TimelineEntry, error) {
	const query = `WITH anchor AS (
SELECT v.name AS at FROM taggings r JOIN timestamp_tags v ON v.id = r.tag_id
WHERE r.object_id = $1 AND v.tagset_id = $2 ORDER BY v.name LIMIT 1)
SELECT m.id, m.file_uri, m.thumbnail_uri, v.name AS at
FROM anchor
JOIN timestamp_tags v ON v.tagset_id = $2
AND v.name BETWEEN anchor.at - make_interval(secs => $3) AND anchor.at + make_interval(secs => $3)
JOIN taggings r ON r.tag_id = v.id
JOIN medias m ON m.id = r.object_id
ORDER BY v.name, m.id`

	var entries []models.TimelineEntry
	if err := r.db.SelectContext(ctx, &entries, query, mediaID, tagSetID, window.Seconds()); err != nil {
		return nil, fmt.Errorf("timeline: %w", err)
	}
	return entries, nil
}
