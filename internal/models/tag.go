package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TagType pins which value kind the tags of a TagSet carry.
type TagType int16

const (
	TagTypeAlphanumerical TagType = 1
	TagTypeTimestamp      TagType = 2
	TagTypeTime           TagType = 3
	TagTypeDate           TagType = 4
	TagTypeNumerical      TagType = 5
)

// Canonical layouts for the temporal tag types.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	TimeLayout      = "15:04:05"
	DateLayout      = "2006-01-02"
)

var tagTypeNames = map[TagType]string{
	TagTypeAlphanumerical: "alphanumerical",
	TagTypeTimestamp:      "timestamp",
	TagTypeTime:           "time",
	TagTypeDate:           "date",
	TagTypeNumerical:      "numerical",
}

// TagTypes lists every tag type in id order.
var TagTypes = []TagType{TagTypeAlphanumerical, TagTypeTimestamp, TagTypeTime, TagTypeDate, TagTypeNumerical}

func (t TagType) String() string {
	if name, ok := tagTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag_type(%d)", int16(t))
}

// Valid reports whether t is one of the five tag types.
func (t TagType) Valid() bool {
	_, ok := tagTypeNames[t]
	return ok
}

// ValueTable names the relation holding values of this type.
func (t TagType) ValueTable() string {
	switch t {
	case TagTypeAlphanumerical:
		return "alphanumerical_tags"
	case TagTypeTimestamp:
		return "timestamp_tags"
	case TagTypeTime:
		return "time_tags"
	case TagTypeDate:
		return "date_tags"
	case TagTypeNumerical:
		return "numerical_tags"
	}
	return ""
}

// ParseTagType accepts a wire name or its numeric id.
func ParseTagType(raw string) (TagType, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for t, name := range tagTypeNames {
		if name == raw || strconv.Itoa(int(t)) == raw {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tag type %q", raw)
}

func (t TagType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown tag type %d", int16(t))
	}
	return []byte(t.String()), nil
}

func (t *TagType) UnmarshalText(b []byte) error {
	parsed, err := ParseTagType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TagValue is the tagged union of the five value kinds. Text holds the
// canonical textual form for every kind; Number is set only for numerical tags.
type TagValue struct {
	Type   TagType
	Text   string
	Number int64
}

// ParseTagValue validates raw against the layout of typ and returns the
// canonical value. Timestamps written as "YYYY-MM-DD/HH:MM:SS" are rewritten
// with a space separator.
func ParseTagValue(typ TagType, raw string) (TagValue, error) {
	switch typ {
	case TagTypeAlphanumerical:
		return TagValue{Type: typ, Text: raw}, nil
	case TagTypeTimestamp:
		raw = strings.Replace(strings.TrimSpace(raw), "/", " ", 1)
		return parseTemporal(typ, raw, TimestampLayout)
	case TagTypeTime:
		return parseTemporal(typ, strings.TrimSpace(raw), TimeLayout)
	case TagTypeDate:
		return parseTemporal(typ, strings.TrimSpace(raw), DateLayout)
	case TagTypeNumerical:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return TagValue{}, fmt.Errorf("numerical value %q is not an integer", raw)
		}
		return NumericalValue(n), nil
	}
	return TagValue{}, fmt.Errorf("unknown tag type %d", int16(typ))
}

func parseTemporal(typ TagType, raw, layout string) (TagValue, error) {
	ts, err := time.Parse(layout, raw)
	if err != nil {
		return TagValue{}, fmt.Errorf("%s value %q does not match %s", typ, raw, layout)
	}
	return TagValue{Type: typ, Text: ts.Format(layout)}, nil
}

// AlphanumericalValue builds an alphanumerical value.
func AlphanumericalValue(s string) TagValue {
	return TagValue{Type: TagTypeAlphanumerical, Text: s}
}

// NumericalValue builds a numerical value.
func NumericalValue(n int64) TagValue {
	return TagValue{Type: TagTypeNumerical, Text: strconv.FormatInt(n, 10), Number: n}
}

// StorageArg returns the value as bound into its type-specific table.
func (v TagValue) StorageArg() interface{} {
	if v.Type == TagTypeNumerical {
		return v.Number
	}
	return v.Text
}

func (v TagValue) String() string {
	return v.Text
}

// Tag is a typed, deduplicated value scoped to one TagSet.
type Tag struct {
	ID       int64    `json:"id"`
	TagSetID int64    `json:"tagset_id"`
	TagType  TagType  `json:"tag_type"`
	Value    TagValue `json:"-"`
}

// TagRecord is the flat row shape of a tag joined with its value table.
type TagRecord struct {
	ID       int64   `db:"id"`
	TagSetID int64   `db:"tagset_id"`
	TagType  TagType `db:"tagtype_id"`
	Value    string  `db:"value"`
}

// ToTag converts the row into the domain tag, canonicalising the value text.
func (r TagRecord) ToTag() (Tag, error) {
	value, err := decodeStoredValue(r.TagType, r.Value)
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: r.ID, TagSetID: r.TagSetID, TagType: r.TagType, Value: value}, nil
}

// decodeStoredValue accepts the ::text rendering PostgreSQL produces for each
// value column, which for timestamps may carry an RFC3339-like shape.
func decodeStoredValue(typ TagType, raw string) (TagValue, error) {
	switch typ {
	case TagTypeTimestamp:
		for _, layout := range []string{TimestampLayout, "2006-01-02T15:04:05Z", time.RFC3339} {
			if ts, err := time.Parse(layout, raw); err == nil {
				return TagValue{Type: typ, Text: ts.Format(TimestampLayout)}, nil
			}
		}
	case TagTypeTime:
		if ts, err := time.Parse(TimeLayout, raw); err == nil {
			return TagValue{Type: typ, Text: ts.Format(TimeLayout)}, nil
		}
	case TagTypeDate:
		if len(raw) >= len(DateLayout) {
			if ts, err := time.Parse(DateLayout, raw[:len(DateLayout)]); err == nil {
				return TagValue{Type: typ, Text: ts.Format(DateLayout)}, nil
			}
		}
	}
	return ParseTagValue(typ, raw)
}

// tagJSON is the wire shape of a tag: the value is an integer for numerical
// tags and a string otherwise.
type tagJSON struct {
	ID       int64       `json:"id"`
	TagSetID int64       `json:"tagset_id"`
	TagType  TagType     `json:"tag_type"`
	Value    interface{} `json:"value"`
}

// MarshalJSON renders the tagged union with its natural JSON type.
func (t Tag) MarshalJSON() ([]byte, error) {
	out := tagJSON{ID: t.ID, TagSetID: t.TagSetID, TagType: t.TagType, Value: t.Value.Text}
	if t.TagType == TagTypeNumerical {
		out.Value = t.Value.Number
	}
	return marshalJSON(out)
}

// TagFilter captures supported filters for listing tags.
type TagFilter struct {
	TagType  TagType
	TagSetID int64
	PageRequest
}
