package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList stores a set of tags as a JSON text column while the
// domain model works with a native slice. Decoding happens once, on
// load, at the persistence boundary.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, l)
}

// Contains reports whether the list holds the given tag.
func (l StringList) Contains(tag string) bool {
	for _, t := range l {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether the two lists share at least one tag.
func (l StringList) Intersects(other StringList) bool {
	for _, t := range other {
		if l.Contains(t) {
			return true
		}
	}
	return false
}
