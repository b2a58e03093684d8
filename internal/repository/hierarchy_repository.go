package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

const hierarchyColumns = "id, name, tagset_id, rootnode_id"

// HierarchyRepository handles persistence for hierarchies.
type HierarchyRepository struct {
	db *sqlx.DB
}

// NewHierarchyRepository creates a new repository instance.
func NewHierarchyRepository(db *sqlx.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

// FindByID returns a hierarchy by id.
func (r *HierarchyRepository) FindByID(ctx context.Context, id int64) (*models.Hierarchy, error) {
	var h models.Hierarchy
	if err := r.db.GetContext(ctx, &h, `SELECT `+hierarchyColumns+` FROM hierarchies WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &h, nil
}

// FindByKey returns the hierarchy with the given name inside a tagset.
func (r *HierarchyRepository) FindByKey(ctx context.Context, name string, tagSetID int64) (*models.Hierarchy, error) {
	var h models.Hierarchy
	if err := r.db.GetContext(ctx, &h, `SELECT `+hierarchyColumns+` FROM hierarchies WHERE name = $1 AND tagset_id = $2`, name, tagSetID); err != nil {
		return nil, err
	}
	return &h, nil
}

// LockByID loads a hierarchy row with FOR UPDATE inside exec's transaction.
func (r *HierarchyRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Hierarchy, error) {
	var h models.Hierarchy
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &h, `SELECT `+hierarchyColumns+` FROM hierarchies WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create persists a new hierarchy without a root.
func (r *HierarchyRepository) Create(ctx context.Context, h *models.Hierarchy) error {
	const query = `INSERT INTO hierarchies (name, tagset_id) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, h.Name, h.TagSetID).Scan(&h.ID); err != nil {
		return fmt.Errorf("create hierarchy: %w", err)
	}
	h.RootNodeID = sql.NullInt64{}
	return nil
}

// SetRoot points the hierarchy at rootID; an invalid rootID clears the pointer.
func (r *HierarchyRepository) SetRoot(ctx context.Context, exec sqlx.ExtContext, hierarchyID int64, rootID sql.NullInt64) error {
	if _, err := execOr(r.db, exec).ExecContext(ctx, `UPDATE hierarchies SET rootnode_id = $1 WHERE id = $2`, rootID, hierarchyID); err != nil {
		return fmt.Errorf("set hierarchy root: %w", err)
	}
	return nil
}

// List returns hierarchies, optionally restricted to one tagset.
func (r *HierarchyRepository) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Hierarchy, int, error) {
	var cond conditions
	if filter.TagSetID != 0 {
		cond.add("tagset_id = $%d", filter.TagSetID)
	}

	hierarchies := []models.Hierarchy{}
	query := `SELECT ` + hierarchyColumns + ` FROM hierarchies` + cond.where() + ` ORDER BY id` + pageClause(filter.PageRequest)
	if err := r.db.SelectContext(ctx, &hierarchies, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list hierarchies: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM hierarchies`+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count hierarchies: %w", err)
	}
	return hierarchies, total, nil
}

// RepairRoots recomputes rootnode_id from the parentless node of every
// hierarchy whose pointer drifted and returns the number of rows fixed.
func (r *HierarchyRepository) RepairRoots(ctx context.Context) (int64, error) {
	const query = `
UPDATE hierarchies h
SET rootnode_id = r.node_id
FROM (
    SELECT h2.id AS hierarchy_id, n.id AS node_id
    FROM hierarchies h2
    LEFT JOIN nodes n ON n.hierarchy_id = h2.id AND n.parentnode_id IS NULL
) r
WHERE r.hierarchy_id = h.id AND h.rootnode_id IS DISTINCT FROM r.node_id`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("repair hierarchy roots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
