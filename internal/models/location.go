package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StructuredLocation is the object form of an event location sent by map pickers
type StructuredLocation struct {
	Address string          `json:"address"`
	Extra   json.RawMessage `json:"-"`
}

// Location accepts either a plain address or a structured object. It is
// normalized to a single address string with Normalize.
type Location struct {
	Plain      string
	Structured *StructuredLocation
}

// UnmarshalJSON implements json.Unmarshaler
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = Location{}

	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '"':
		return json.Unmarshal(data, &l.Plain)
	case data[0] == '{':
		var s StructuredLocation
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid location object: %w", err)
		}
		s.Extra = append(json.RawMessage(nil), data...)
		l.Structured = &s
		return nil
	default:
		return fmt.Errorf("location must be a string or an object")
	}
}

// Normalize returns the canonical address string. Objects without an address
// fall back to their compact JSON text.
func (l Location) Normalize() string {
	if l.Structured != nil {
		if addr := strings.TrimSpace(l.Structured.Address); addr != "" {
			return addr
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, l.Structured.Extra); err != nil {
			return ""
		}
		if buf.String() == "{}" {
			return ""
		}
		return buf.String()
	}
	return strings.TrimSpace(l.Plain)
}
