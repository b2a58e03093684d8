package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/m3-catalog/internal/models"
	"github.com/noah-isme/m3-catalog/pkg/database"
	appErrors "github.com/noah-isme/m3-catalog/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type hierarchyRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Hierarchy, error)
	FindByKey(ctx context.Context, name string, tagSetID int64) (*models.Hierarchy, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Hierarchy, error)
	Create(ctx context.Context, h *models.Hierarchy) error
	SetRoot(ctx context.Context, exec sqlx.ExtContext, hierarchyID int64, rootID sql.NullInt64) error
	List(ctx context.Context, filter models.HierarchyFilter) ([]models.Hierarchy, int, error)
}

type nodeRepository interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Node, error)
	LockByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Node, error)
	FindRoot(ctx context.Context, exec sqlx.ExtContext, hierarchyID int64) (*models.Node, error)
	FindChild(ctx context.Context, exec sqlx.ExtContext, tagID, hierarchyID, parentID int64) (*models.Node, error)
	Create(ctx context.Context, exec sqlx.ExtContext, node *models.Node) error
	Children(ctx context.Context, exec sqlx.ExtContext, id int64) ([]models.Node, error)
	SetParent(ctx context.Context, exec sqlx.ExtContext, id int64, parent sql.NullInt64) error
	Reparent(ctx context.Context, exec sqlx.ExtContext, from int64, to sql.NullInt64) (int64, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error
	List(ctx context.Context, filter models.NodeFilter) ([]models.Node, int, error)
}

// CreateHierarchyRequest captures fields for creating a hierarchy.
type CreateHierarchyRequest struct {
	Name     string `json:"name" validate:"required"`
	TagSetID int64  `json:"tagset_id" validate:"required,gt=0"`
}

// AddNodeRequest places a tag under a parent node. A zero ParentNodeID adds the root.
type AddNodeRequest struct {
	TagID        int64 `json:"tag_id" validate:"required,gt=0"`
	HierarchyID  int64 `json:"hierarchy_id" validate:"required,gt=0"`
	ParentNodeID int64 `json:"parent_node_id" validate:"gte=0"`
}

// NodeMerge records a moved child folded into a sibling carrying the same tag.
type NodeMerge struct {
	NodeID     int64 `json:"node_id"`
	IntoNodeID int64 `json:"into_node_id"`
}

// NodeDeletion describes the tree mutation performed by DeleteNode.
type NodeDeletion struct {
	NodeID         int64       `json:"node_id"`
	HierarchyID    int64       `json:"hierarchy_id"`
	Reparented     int64       `json:"reparented"`
	Merged         []NodeMerge `json:"merged,omitempty"`
	PromotedRootID *int64      `json:"promoted_root_id,omitempty"`
}

// HierarchyService maintains hierarchies and their node trees. Root
// assignment and node deletion run in single transactions so the root
// pointer never disagrees with the parentless node.
type HierarchyService struct {
	tx          txProvider
	hierarchies hierarchyRepository
	nodes       nodeRepository
	validator   *validator.Validate
	logger      *zap.Logger
	pageSize    pageBounds
}

// NewHierarchyService creates a new hierarchy service.
func NewHierarchyService(tx txProvider, hierarchies hierarchyRepository, nodes nodeRepository, validate *validator.Validate, logger *zap.Logger) *HierarchyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HierarchyService{tx: tx, hierarchies: hierarchies, nodes: nodes, validator: validate, logger: logger}
}

// WithPageBounds overrides the default and maximum list page sizes.
func (s *HierarchyService) WithPageBounds(defaultSize, maxSize int) *HierarchyService {
	s.pageSize = pageBounds{defaultSize: defaultSize, maxSize: maxSize}
	return s
}

// CreateOrGet returns the hierarchy keyed on (name, tagset), creating it when absent.
func (s *HierarchyService) CreateOrGet(ctx context.Context, req CreateHierarchyRequest) (*models.Hierarchy, bool, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid hierarchy payload")
	}

	existing, err := s.hierarchies.FindByKey(ctx, req.Name, req.TagSetID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load hierarchy")
	}

	h := &models.Hierarchy{Name: req.Name, TagSetID: req.TagSetID}
	if err := s.hierarchies.Create(ctx, h); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, writeError(err, "create hierarchy")
		}
		existing, ferr := s.hierarchies.FindByKey(ctx, req.Name, req.TagSetID)
		if ferr != nil {
			return nil, false, appErrors.Storage(ferr, "load hierarchy")
		}
		return existing, false, nil
	}
	return h, true, nil
}

// Get returns a hierarchy by id.
func (s *HierarchyService) Get(ctx context.Context, id int64) (*models.Hierarchy, error) {
	h, err := s.hierarchies.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "hierarchy")
	}
	return h, nil
}

// List returns paginated hierarchies.
func (s *HierarchyService) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Hierarchy, *models.Pagination, error) {
	filter.PageRequest = s.pageSize.normalize(filter.PageRequest)
	items, total, err := s.hierarchies.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list hierarchies")
	}
	return items, filter.Meta(total), nil
}

// AddRootNode makes tagID the root of an empty hierarchy. Re-adding the
// current root returns it and repairs a drifted root pointer; a different
// root is a conflict.
func (s *HierarchyService) AddRootNode(ctx context.Context, tagID, hierarchyID int64) (node *models.Node, created bool, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, appErrors.Storage(err, "begin add root node")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	h, err := s.hierarchies.LockByID(ctx, tx, hierarchyID)
	if err != nil {
		return nil, false, referenceError(err, "hierarchy", hierarchyID)
	}

	root, err := s.nodes.FindRoot(ctx, tx, hierarchyID)
	switch {
	case err == nil:
		if root.TagID != tagID {
			err = appErrors.Clone(appErrors.ErrConflict,
				fmt.Sprintf("hierarchy %d already has root node %d", hierarchyID, root.ID))
			return nil, false, err
		}
		if !h.RootNodeID.Valid || h.RootNodeID.Int64 != root.ID {
			if err = s.hierarchies.SetRoot(ctx, tx, hierarchyID, sql.NullInt64{Int64: root.ID, Valid: true}); err != nil {
				return nil, false, appErrors.Storage(err, "repair root pointer")
			}
			s.logger.Warn("root pointer repaired", zap.Int64("hierarchy_id", hierarchyID), zap.Int64("root_node_id", root.ID))
		}
		if err = tx.Commit(); err != nil {
			return nil, false, appErrors.Storage(err, "commit add root node")
		}
		return root, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load root node")
	}

	node = &models.Node{TagID: tagID, HierarchyID: hierarchyID}
	if err = s.nodes.Create(ctx, tx, node); err != nil {
		if database.IsUniqueViolation(err) {
			err = appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("hierarchy %d already has a root node", hierarchyID))
			return nil, false, err
		}
		err = writeError(err, "create root node")
		return nil, false, err
	}
	if err = s.hierarchies.SetRoot(ctx, tx, hierarchyID, sql.NullInt64{Int64: node.ID, Valid: true}); err != nil {
		return nil, false, appErrors.Storage(err, "set root pointer")
	}
	if err = tx.Commit(); err != nil {
		return nil, false, appErrors.Storage(err, "commit add root node")
	}
	s.logger.Info("root node added", zap.Int64("hierarchy_id", hierarchyID), zap.Int64("node_id", node.ID))
	return node, true, nil
}

// AddNode returns the node for the tag under the parent, creating it when absent.
func (s *HierarchyService) AddNode(ctx context.Context, req AddNodeRequest) (*models.Node, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err, "invalid node payload")
	}
	if req.ParentNodeID == 0 {
		return s.AddRootNode(ctx, req.TagID, req.HierarchyID)
	}

	parent, err := s.nodes.FindByID(ctx, nil, req.ParentNodeID)
	if err != nil {
		return nil, false, referenceError(err, "parent node", req.ParentNodeID)
	}
	if parent.HierarchyID != req.HierarchyID {
		return nil, false, appErrors.Clone(appErrors.ErrInvalidReference,
			fmt.Sprintf("parent node %d belongs to hierarchy %d", parent.ID, parent.HierarchyID))
	}

	existing, err := s.nodes.FindChild(ctx, nil, req.TagID, req.HierarchyID, parent.ID)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, false, appErrors.Storage(err, "load node")
	}

	node := &models.Node{
		TagID:        req.TagID,
		HierarchyID:  req.HierarchyID,
		ParentNodeID: sql.NullInt64{Int64: parent.ID, Valid: true},
	}
	if err := s.nodes.Create(ctx, nil, node); err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, false, writeError(err, "create node")
		}
		existing, ferr := s.nodes.FindChild(ctx, nil, req.TagID, req.HierarchyID, parent.ID)
		if ferr != nil {
			return nil, false, appErrors.Storage(ferr, "load node")
		}
		return existing, false, nil
	}
	return node, true, nil
}

// DeleteNode removes a node. Children of an inner node move up to its
// parent; a child whose tag already sits under that parent is merged into
// the existing sibling. A root with one child hands the root over to that
// child; a root with several children cannot be deleted.
func (s *HierarchyService) DeleteNode(ctx context.Context, id int64) (result *NodeDeletion, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Storage(err, "begin delete node")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	node, err := s.nodes.LockByID(ctx, tx, id)
	if err != nil {
		return nil, lookupError(err, "node")
	}
	result = &NodeDeletion{NodeID: node.ID, HierarchyID: node.HierarchyID}

	if !node.IsRoot() {
		if err = s.nodes.Delete(ctx, tx, node.ID); err != nil {
			return nil, appErrors.Storage(err, "delete node")
		}
		if err = s.moveChildren(ctx, tx, node.HierarchyID, node.ID, node.ParentNodeID.Int64, result); err != nil {
			return nil, err
		}
	} else if err = s.deleteRoot(ctx, tx, node, result); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Storage(err, "commit delete node")
	}
	s.logger.Info("node deleted",
		zap.Int64("node_id", node.ID),
		zap.Int64("hierarchy_id", node.HierarchyID),
		zap.Int64("reparented", result.Reparented),
		zap.Int("merged", len(result.Merged)))
	return result, nil
}

// moveChildren re-parents the children of from under to. A child whose tag
// already has a node under to is deleted and its own children are moved
// into that sibling, recursively.
func (s *HierarchyService) moveChildren(ctx context.Context, tx *sqlx.Tx, hierarchyID, from, to int64, result *NodeDeletion) error {
	children, err := s.nodes.Children(ctx, tx, from)
	if err != nil {
		return appErrors.Storage(err, "list child nodes")
	}
	for _, child := range children {
		sibling, err := s.nodes.FindChild(ctx, tx, child.TagID, hierarchyID, to)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if err := s.nodes.SetParent(ctx, tx, child.ID, sql.NullInt64{Int64: to, Valid: true}); err != nil {
				return appErrors.Storage(err, "reparent child node")
			}
			result.Reparented++
			continue
		case err != nil:
			return appErrors.Storage(err, "load sibling node")
		}

		if err := s.nodes.Delete(ctx, tx, child.ID); err != nil {
			return appErrors.Storage(err, "delete merged node")
		}
		if err := s.moveChildren(ctx, tx, hierarchyID, child.ID, sibling.ID, result); err != nil {
			return err
		}
		result.Merged = append(result.Merged, NodeMerge{NodeID: child.ID, IntoNodeID: sibling.ID})
	}
	return nil
}

func (s *HierarchyService) deleteRoot(ctx context.Context, tx *sqlx.Tx, root *models.Node, result *NodeDeletion) error {
	if _, err := s.hierarchies.LockByID(ctx, tx, root.HierarchyID); err != nil {
		return lookupError(err, "hierarchy")
	}
	children, err := s.nodes.Children(ctx, tx, root.ID)
	if err != nil {
		return appErrors.Storage(err, "list child nodes")
	}
	if len(children) > 1 {
		return appErrors.Clone(appErrors.ErrAmbiguousRootPromotion,
			fmt.Sprintf("root node %d has %d children", root.ID, len(children)))
	}

	if err := s.hierarchies.SetRoot(ctx, tx, root.HierarchyID, sql.NullInt64{}); err != nil {
		return appErrors.Storage(err, "clear root pointer")
	}
	if err := s.nodes.Delete(ctx, tx, root.ID); err != nil {
		return appErrors.Storage(err, "delete root node")
	}
	if len(children) == 0 {
		return nil
	}

	// The old root row is gone before the child drops its parent, so the
	// single-root index never sees two parentless nodes.
	child := children[0].ID
	if _, err := s.nodes.Reparent(ctx, tx, root.ID, sql.NullInt64{}); err != nil {
		return appErrors.Storage(err, "promote child node")
	}
	if err := s.hierarchies.SetRoot(ctx, tx, root.HierarchyID, sql.NullInt64{Int64: child, Valid: true}); err != nil {
		return appErrors.Storage(err, "set root pointer")
	}
	result.Reparented = 1
	result.PromotedRootID = &child
	return nil
}

// GetNode returns a node by id.
func (s *HierarchyService) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	node, err := s.nodes.FindByID(ctx, nil, id)
	if err != nil {
		return nil, lookupError(err, "node")
	}
	return node, nil
}

// ListNodes returns nodes matching every non-zero filter field.
func (s *HierarchyService) ListNodes(ctx context.Context, filter models.NodeFilter) ([]models.Node, *models.Pagination, error) {
	filter.PageRequest = s.pageSize.normalize(filter.PageRequest)
	nodes, total, err := s.nodes.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Storage(err, "list nodes")
	}
	return nodes, filter.Meta(total), nil
}

// Children returns the direct children of a node.
func (s *HierarchyService) Children(ctx context.Context, id int64, page models.PageRequest) ([]models.Node, *models.Pagination, error) {
	if _, err := s.GetNode(ctx, id); err != nil {
		return nil, nil, err
	}
	return s.ListNodes(ctx, models.NodeFilter{ParentNodeID: id, PageRequest: page})
}
