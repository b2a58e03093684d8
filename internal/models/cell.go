package models

import "time"

// Axis types for a cell query.
const (
	AxisTagSet = "tagset"
	AxisNode   = "node"
)

// Filter types for a cell query.
const (
	FilterTag    = "tag"
	FilterTagSet = "tagset"
	FilterNode   = "node"
	FilterRange  = "range"
)

// CellAxis spreads medias along one dimension. A tagset axis has one
// coordinate per tag of the set; a node axis has one per child of the node,
// covering that child's whole subtree. An empty Type leaves the axis unused.
type CellAxis struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Used reports whether the axis takes part in the query.
func (a CellAxis) Used() bool { return a.Type != "" }

// CellRange selects values of one tagset between Low and High inclusive.
// TagType is resolved from the tagset before the query runs.
type CellRange struct {
	TagSetID int64   `json:"tagset_id"`
	Low      string  `json:"low"`
	High     string  `json:"high"`
	TagType  TagType `json:"-"`
}

// CellFilter restricts the medias considered. Filters are AND-ed; the IDs or
// ranges inside one filter are OR-ed.
type CellFilter struct {
	Type   string      `json:"type"`
	IDs    []int64     `json:"ids,omitempty"`
	Ranges []CellRange `json:"ranges,omitempty"`
}

// CellQuery describes a faceted browsing state.
type CellQuery struct {
	X       CellAxis     `json:"x"`
	Y       CellAxis     `json:"y"`
	Z       CellAxis     `json:"z"`
	Filters []CellFilter `json:"filters"`
}

// Axes returns the three axes in x, y, z order.
func (q CellQuery) Axes() [3]CellAxis {
	return [3]CellAxis{q.X, q.Y, q.Z}
}

// CellObjectQuery lists the medias matching every filter.
type CellObjectQuery struct {
	Filters []CellFilter `json:"filters"`
	PageRequest
}

// CubeObject is the slim media projection used by browsing responses.
type CubeObject struct {
	ID           int64  `db:"id" json:"id"`
	FileURI      string `db:"file_uri" json:"file_uri"`
	ThumbnailURI string `db:"thumbnail_uri" json:"thumbnail_uri"`
}

// CellRow is one grouped row as read from storage. Keys are tag ids for
// tagset axes, child node ids for node axes and zero for unused axes.
type CellRow struct {
	XKey         int64  `db:"x_key"`
	YKey         int64  `db:"y_key"`
	ZKey         int64  `db:"z_key"`
	Count        int64  `db:"count"`
	CoverID      int64  `db:"cover_id"`
	FileURI      string `db:"file_uri"`
	ThumbnailURI string `db:"thumbnail_uri"`
}

// Cell is one occupied position of the browsing state. Positions are 1-based
// along each used axis and zero along unused ones.
type Cell struct {
	X     int        `json:"x"`
	Y     int        `json:"y"`
	Z     int        `json:"z"`
	Keys  [3]int64   `json:"keys"`
	Count int64      `json:"count"`
	Cover CubeObject `json:"cover"`
}

// TimelineEntry is a media placed on a timestamp tagset.
type TimelineEntry struct {
	CubeObject
	At time.Time `db:"at" json:"at"`
}
