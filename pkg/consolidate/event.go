package consolidate

import (
	"bytes"
	"encoding/json"
	"strings"
)

type event struct {
	Year json.RawMessage `json:"year"`
	Body json.RawMessage `json:"body"`
}

// RequestedYear extracts the year from an invocation event. The year is read
// from the top-level "year" field, or else from "body", which may be a JSON
// object or a string holding one. A missing, null, empty or zero year
// reports false.
func RequestedYear(raw []byte) (any, bool) {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, false
	}
	if y, ok := decodeYear(ev.Year); ok {
		return y, true
	}
	if len(ev.Body) == 0 {
		return nil, false
	}

	body := []byte(ev.Body)
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		body = []byte(s)
	}
	var inner event
	if err := json.Unmarshal(body, &inner); err != nil {
		return nil, false
	}
	return decodeYear(inner.Year)
}

func decodeYear(raw json.RawMessage) (any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if !present(v) {
		return nil, false
	}
	return v, true
}

func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case bool:
		return x
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}
