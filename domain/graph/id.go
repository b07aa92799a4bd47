package graph

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a vertex or edge. Backends key either by int64 or by opaque
// string; an ID carries which one it is.
type ID struct {
	str   string
	num   int64
	isInt bool
	set   bool
}

// ParseID yields the integer form when s is the canonical base-10 text of an
// int64, the string form otherwise, and the zero ID for "". Keys such as
// "007" or "+5" stay strings so String returns them unchanged.
func ParseID(s string) ID {
	if s == "" {
		return ID{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return IntID(n)
	}
	return StringID(s)
}

// StringID builds a string-form ID. StringID("") is the zero ID.
func StringID(s string) ID {
	if s == "" {
		return ID{}
	}
	return ID{str: s, set: true}
}

// IntID builds an integer-form ID.
func IntID(n int64) ID {
	return ID{num: n, isInt: true, set: true}
}

// Int64 returns the integer form, if this is one.
func (id ID) Int64() (int64, bool) {
	return id.num, id.isInt
}

// IsInt reports whether the ID has integer form.
func (id ID) IsInt() bool { return id.isInt }

// IsZero reports whether no ID is set.
func (id ID) IsZero() bool { return !id.set }

func (id ID) String() string {
	switch {
	case !id.set:
		return ""
	case id.isInt:
		return strconv.FormatInt(id.num, 10)
	default:
		return id.str
	}
}

// MarshalJSON encodes the ID as a JSON string, or null when unset.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.set {
		return []byte("null"), nil
	}
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts a string, an integer or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ParseID(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or integer: %s", data)
	}
	*id = IntID(n)
	return nil
}
