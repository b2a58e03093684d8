package models

// TagSet is a named collection whose type pins the value kind of its tags.
type TagSet struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	TagType TagType `db:"tagtype_id" json:"tag_type"`
}

// TagSetFilter captures supported filters for listing tagsets.
type TagSetFilter struct {
	TagType TagType
	PageRequest
}
