package models

// MediaCreatedEvent is emitted once per newly inserted media.
type MediaCreatedEvent struct {
	ID           int64    `json:"id"`
	URI          string   `json:"uri"`
	FileType     FileType `json:"file_type"`
	ThumbnailURI string   `json:"thumbnail_uri"`
}

// TagSuggestion is an inbound request from the analysis pipeline to tag a
// media. Exactly one of TagSetID or TagSetName identifies the tagset.
type TagSuggestion struct {
	MediaID    int64    `json:"media_id"`
	TagSetID   int64    `json:"tagset_id,omitempty"`
	TagSetName string   `json:"tagset_name,omitempty"`
	TagType    TagType  `json:"tag_type"`
	Value      RawValue `json:"value"`
}
