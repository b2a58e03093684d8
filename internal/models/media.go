package models

import (
	"fmt"
	"strings"
)

// FileType classifies a cataloged file.
type FileType int16

const (
	FileTypeImage FileType = 1
	FileTypeAudio FileType = 2
	FileTypeVideo FileType = 3
	FileTypeOther FileType = 4
)

var fileTypeNames = map[FileType]string{
	FileTypeImage: "image",
	FileTypeAudio: "audio",
	FileTypeVideo: "video",
	FileTypeOther: "other",
}

// String returns the wire name of the file type.
func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("file_type(%d)", int16(t))
}

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	_, ok := fileTypeNames[t]
	return ok
}

// ParseFileType accepts a wire name or its numeric id.
func ParseFileType(raw string) (FileType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for t, name := range fileTypeNames {
		if name == raw || fmt.Sprint(int16(t)) == raw {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown file type %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (t FileType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown file type %d", int16(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *FileType) UnmarshalText(b []byte) error {
	parsed, err := ParseFileType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Media is a cataloged file identified by its URI.
type Media struct {
	ID           int64    `db:"id" json:"id"`
	FileURI      string   `db:"file_uri" json:"file_uri"`
	FileType     FileType `db:"file_type" json:"file_type"`
	ThumbnailURI string   `db:"thumbnail_uri" json:"thumbnail_uri"`
}

// SameAttributes reports whether m and other agree on every secondary field.
func (m Media) SameAttributes(other Media) bool {
	return m.FileType == other.FileType && m.ThumbnailURI == other.ThumbnailURI
}

// MediaFilter captures supported filters for listing medias.
type MediaFilter struct {
	FileType FileType
	PageRequest
}
