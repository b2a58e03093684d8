package models

import "database/sql"

// Hierarchy is a named tree of nodes scoped to one TagSet.
type Hierarchy struct {
	ID         int64         `db:"id" json:"id"`
	Name       string        `db:"name" json:"name"`
	TagSetID   int64         `db:"tagset_id" json:"tagset_id"`
	RootNodeID sql.NullInt64 `db:"rootnode_id" json:"-"`
}

// RootID returns the root node id or nil when the hierarchy is empty.
func (h Hierarchy) RootID() *int64 {
	if !h.RootNodeID.Valid {
		return nil
	}
	id := h.RootNodeID.Int64
	return &id
}

type hierarchyJSON struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TagSetID   int64  `json:"tagset_id"`
	RootNodeID *int64 `json:"root_node_id"`
}

func (h Hierarchy) MarshalJSON() ([]byte, error) {
	return marshalJSON(hierarchyJSON{ID: h.ID, Name: h.Name, TagSetID: h.TagSetID, RootNodeID: h.RootID()})
}

// HierarchyFilter captures supported filters for listing hierarchies.
type HierarchyFilter struct {
	TagSetID int64
	PageRequest
}

// Node positions a tag inside a hierarchy. The root has no parent.
type Node struct {
	ID           int64         `db:"id" json:"-"`
	TagID        int64         `db:"tag_id" json:"-"`
	HierarchyID  int64         `db:"hierarchy_id" json:"-"`
	ParentNodeID sql.NullInt64 `db:"parentnode_id" json:"-"`
}

// IsRoot reports whether the node is parentless.
func (n Node) IsRoot() bool {
	return !n.ParentNodeID.Valid
}

// ParentID returns the parent id or nil for the root.
func (n Node) ParentID() *int64 {
	if !n.ParentNodeID.Valid {
		return nil
	}
	id := n.ParentNodeID.Int64
	return &id
}

type nodeJSON struct {
	ID           int64  `json:"id"`
	TagID        int64  `json:"tag_id"`
	HierarchyID  int64  `json:"hierarchy_id"`
	ParentNodeID *int64 `json:"parent_node_id"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	return marshalJSON(nodeJSON{ID: n.ID, TagID: n.TagID, HierarchyID: n.HierarchyID, ParentNodeID: n.ParentID()})
}

// NodeFilter ANDs equality predicates; zero values are ignored. RootOnly
// selects parentless nodes.
type NodeFilter struct {
	HierarchyID  int64
	TagID        int64
	ParentNodeID int64
	RootOnly     bool
	PageRequest
}
