package models

// Tagging associates one media with one tag.
type Tagging struct {
	MediaID int64 `db:"object_id" json:"media_id"`
	TagID   int64 `db:"tag_id" json:"tag_id"`
}
