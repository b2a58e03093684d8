package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/m3-catalog/internal/models"
)

const nodeColumns = "id, tag_id, hierarchy_id, parentnode_id"

// NodeRepository handles persistence for hierarchy nodes. Mutating methods
// accept an optional exec so callers can compose them in one transaction.
type NodeRepository struct {
	db *sqlx.DB
}

// NewNodeRepository creates a new repository instance.
func NewNodeRepository(db *sqlx.DB) *NodeRepository {
	return &NodeRepository{db: db}
}

// FindByID returns a node by id.
func (r *NodeRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Node, error) {
	var node models.Node
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &node, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &node, nil
}

// LockByID loads a node row with FOR UPDATE.
func (r *NodeRepository) LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Node, error) {
	var node models.Node
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &node, `SELECT `+nodeColumns+` FROM nodes WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, err
	}
	return &node, nil
}

// FindRoot returns the parentless node of a hierarchy.
func (r *NodeRepository) FindRoot(ctx context.Context, exec sqlx.ExtContext, hierarchyID int64) (*models.Node, error) {
	var node models.Node
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &node, `SELECT `+nodeColumns+` FROM nodes WHERE hierarchy_id = $1 AND parentnode_id IS NULL`, hierarchyID); err != nil {
		return nil, err
	}
	return &node, nil
}

// FindChild returns the node for tagID directly under parentID.
func (r *NodeRepository) FindChild(ctx context.Context, exec sqlx.ExtContext, tagID, hierarchyID, parentID int64) (*models.Node, error) {
	var node models.Node
	const query = `SELECT ` + nodeColumns + ` FROM nodes WHERE tag_id = $1 AND hierarchy_id = $2 AND parentnode_id = $3`
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &node, query, tagID, hierarchyID, parentID); err != nil {
		return nil, err
	}
	return &node, nil
}

// Create persists a node and sets its id.
func (r *NodeRepository) Create(ctx context.Context, exec sqlx.ExtContext, node *models.Node) error {
	const query = `INSERT INTO nodes (tag_id, hierarchy_id, parentnode_id) VALUES ($1, $2, $3) RETURNING id`
	if err := execOr(r.db, exec).QueryRowxContext(ctx, query, node.TagID, node.HierarchyID, node.ParentNodeID).Scan(&node.ID); err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	return nil
}

// Children loads the direct children of a node with FOR UPDATE.
func (r *NodeRepository) Children(ctx context.Context, exec sqlx.ExtContext, id int64) ([]models.Node, error) {
	nodes := []models.Node{}
	const query = `SELECT ` + nodeColumns + ` FROM nodes WHERE parentnode_id = $1 ORDER BY id FOR UPDATE`
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &nodes, query, id); err != nil {
		return nil, fmt.Errorf("list child nodes: %w", err)
	}
	return nodes, nil
}

// SetParent moves a single node under parent.
func (r *NodeRepository) SetParent(ctx context.Context, exec sqlx.ExtContext, id int64, parent sql.NullInt64) error {
	if _, err := execOr(r.db, exec).ExecContext(ctx, `UPDATE nodes SET parentnode_id = $1 WHERE id = $2`, parent, id); err != nil {
		return fmt.Errorf("set node parent: %w", err)
	}
	return nil
}

// Reparent moves every child of from under to; an invalid to makes them parentless.
func (r *NodeRepository) Reparent(ctx context.Context, exec sqlx.ExtContext, from int64, to sql.NullInt64) (int64, error) {
	res, err := execOr(r.db, exec).ExecContext(ctx, `UPDATE nodes SET parentnode_id = $1 WHERE parentnode_id = $2`, to, from)
	if err != nil {
		return 0, fmt.Errorf("reparent nodes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Delete removes a node row.
func (r *NodeRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	res, err := execOr(r.db, exec).ExecContext(ctx, `DELETE FROM nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns nodes matching every non-zero filter field.
func (r *NodeRepository) List(ctx context.Context, filter models.NodeFilter) ([]models.Node, int, error) {
	var cond conditions
	if filter.HierarchyID != 0 {
		cond.add("hierarchy_id = $%d", filter.HierarchyID)
	}
	if filter.TagID != 0 {
		cond.add("tag_id = $%d", filter.TagID)
	}
	if filter.ParentNodeID != 0 {
		cond.add("parentnode_id = $%d", filter.ParentNodeID)
	}
	if filter.RootOnly {
		cond.raw("parentnode_id IS NULL")
	}

	nodes := []models.Node{}
	query := `SELECT ` + nodeColumns + ` FROM nodes` + cond.where() + ` ORDER BY id` + pageClause(filter.PageRequest)
	if err := r.db.SelectContext(ctx, &nodes, query, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("list nodes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM nodes`+cond.where(), cond.args...); err != nil {
		return nil, 0, fmt.Errorf("count nodes: %w", err)
	}
	return nodes, total, nil
}
