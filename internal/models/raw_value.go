package models

import (
	"bytes"
	"fmt"

	"github.com/bytedance/sonic"
)

// RawValue is a tag value as received on the wire. JSON strings are unquoted
// and JSON numbers are kept verbatim so large integers survive decoding.
type RawValue string

func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = ""
	case b[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*v = RawValue(b)
	default:
		return fmt.Errorf("tag value must be a string or a number")
	}
	return nil
}

func (v RawValue) String() string {
	return string(v)
}
