package format

import (
	"fmt"
	"strings"
	"time"
)

// Duration renders seconds as "Xh Ym".
func Duration(seconds float64) string {
	total := int64(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
}

// Kilometers renders meters as kilometers with two decimals.
func Kilometers(meters float64) string {
	return fmt.Sprintf("%.2f km", meters/1000)
}

// Date normalizes ISO-8601 timestamps to "2006-01-02 15:04:05". Plain dates
// and unparseable values are returned unchanged.
func Date(s string) string {
	if s == "" {
		return NA
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateTime)
		}
	}
	return s
}

// durationOf renders the seconds at key or NA.
func durationOf(r Record, keys ...string) string {
	if s, ok := r.Float(keys...); ok {
		return Duration(s)
	}
	return NA
}

// distanceOf renders the meters at key or NA.
func distanceOf(r Record, keys ...string) string {
	if m, ok := r.Float(keys...); ok {
		return Kilometers(m)
	}
	return NA
}

// withUnit appends unit to the value at keys, or returns NA.
func withUnit(r Record, unit string, keys ...string) string {
	f, ok := r.Float(keys...)
	if !ok {
		return NA
	}
	return Number(f) + unit
}

// block accumulates "label: value" lines.
type block struct {
	b strings.Builder
}

func (b *block) line(layout string, args ...any) {
	fmt.Fprintf(&b.b, layout, args...)
	b.b.WriteByte('\n')
}

func (b *block) field(label, value string) {
	b.line("%s: %s", label, value)
}

func (b *block) blank() {
	b.b.WriteByte('\n')
}

func (b *block) String() string {
	return b.b.String()
}
