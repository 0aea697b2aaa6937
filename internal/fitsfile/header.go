package fitsfile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingKey is returned when a header lacks the requested keyword
var ErrMissingKey = errors.New("header keyword not present")

// Header is an ordered, read-only view of primary HDU keywords. Values are
// string, bool, int64 or float64.
type Header struct {
	keys   []string
	values map[string]any
}

// NewHeader creates an empty header
func NewHeader() *Header {
	return &Header{values: make(map[string]any)}
}

// Set adds or replaces a keyword. Integers are stored as int64.
func (h *Header) Set(key string, value any) {
	key = strings.ToUpper(strings.TrimSpace(key))
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = normalize(value)
}

// Keys returns keywords in header order
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of distinct keywords
func (h *Header) Len() int {
	return len(h.keys)
}

// Get returns the raw value of a keyword
func (h *Header) Get(key string) (any, bool) {
	v, ok := h.values[strings.ToUpper(key)]
	return v, ok
}

// Has reports whether the keyword is present
func (h *Header) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// String returns the value of a keyword formatted as text. Strings are
// returned with trailing blanks removed.
func (h *Header) String(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return strings.TrimRight(val, " "), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), true
	case bool:
		if val {
			return "T", true
		}
		return "F", true
	default:
		return fmt.Sprint(val), true
	}
}

// Float returns the numeric value of a keyword. Numeric strings are parsed.
func (h *Header) Float(key string) (float64, error) {
	v, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrMissingKey)
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s: value %v is not numeric", key, val)
	}
}

func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case float32:
		return float64(val)
	case string, bool, int64, float64:
		return val
	default:
		return fmt.Sprint(val)
	}
}
