package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are the formats the backend has been observed to emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
}

// localLayouts carry no zone and are read as local wall-clock time, the
// way the web client's Date constructor reads them.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a backend timestamp. An empty string yields the
// zero time without error.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// firstNonEmpty returns the first argument that is not the empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// flexInt decodes an integer sent either as a JSON number or a numeric string.
type flexInt struct {
	value int64
	set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("decoding integer %q: %w", s, err)
		}
		f.value, f.set = n, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return fmt.Errorf("decoding integer %s: %w", data, err)
		}
		i = int64(fl)
	}
	f.value, f.set = i, true
	return nil
}

// pickInt returns the first value that was present in the payload.
func pickInt(values ...flexInt) int64 {
	for _, v := range values {
		if v.set {
			return v.value
		}
	}
	return 0
}

// flexBool decodes booleans sent as true/false, 0/1 or "true"/"false".
type flexBool struct {
	value bool
	set   bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null":
		return nil
	case "true", "1", `"true"`, `"1"`:
		f.value, f.set = true, true
	case "false", "0", `"false"`, `"0"`:
		f.value, f.set = false, true
	default:
		return fmt.Errorf("decoding boolean %s", data)
	}
	return nil
}

func pickBool(values ...flexBool) bool {
	for _, v := range values {
		if v.set {
			return v.value
		}
	}
	return false
}

// timestampField decodes created_at from either of its spellings. An
// unparseable value degrades to the zero time so one bad row does not fail
// the whole list; such rows sort as the oldest.
func timestampField(what string, id int64, values ...string) time.Time {
	raw := firstNonEmpty(values...)
	t, err := ParseTimestamp(raw)
	if err != nil {
		slog.Warn("unparseable timestamp",
			slog.String("entity", what),
			slog.Int64("id", id),
			slog.String("value", raw),
		)
		return time.Time{}
	}
	return t
}

func unmarshalWire(data []byte, w any, what string) error {
	if err := json.Unmarshal(data, w); err != nil {
		return fmt.Errorf("decoding %s: %w", what, err)
	}
	return nil
}
