package format

import (
	"encoding/json"
	"math"
	"strconv"
)

// NA is printed in place of a missing value.
const NA = "N/A"

// Record is a decoded JSON object.
type Record map[string]any

// AsRecord returns v as a Record when it is a JSON object.
func AsRecord(v any) (Record, bool) {
	switch m := v.(type) {
	case Record:
		return m, true
	case map[string]any:
		return Record(m), true
	}
	return nil, false
}

// Records returns the JSON objects in v, which must be a JSON array.
// Non-object elements are skipped.
func Records(v any) ([]Record, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if r, ok := AsRecord(item); ok {
			out = append(out, r)
		}
	}
	return out, true
}

// Value returns the first non-null value among keys.
func (r Record) Value(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first present value among keys as text, or NA.
func (r Record) String(keys ...string) string {
	v, ok := r.Value(keys...)
	if !ok {
		return NA
	}
	s := scalar(v)
	if s == "" {
		return NA
	}
	return s
}

// Float returns the first numeric value among keys.
func (r Record) Float(keys ...string) (float64, bool) {
	v, ok := r.Value(keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns the first numeric value among keys, truncated.
func (r Record) Int(keys ...string) (int64, bool) {
	f, ok := r.Float(keys...)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Bool reports whether key holds true.
func (r Record) Bool(key string) bool {
	b, _ := r[key].(bool)
	return b
}

// Map returns the nested object at key.
func (r Record) Map(key string) (Record, bool) {
	return AsRecord(r[key])
}

// Slice returns the array at key.
func (r Record) Slice(key string) []any {
	s, _ := r[key].([]any)
	return s
}

// Has reports whether any of keys holds a non-null value.
func (r Record) Has(keys ...string) bool {
	_, ok := r.Value(keys...)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64, float32, int, int64, json.Number:
		f, _ := toFloat(t)
		return Number(f)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Number prints f without a fraction when it is integral and with at most
// two decimals otherwise.
func Number(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
