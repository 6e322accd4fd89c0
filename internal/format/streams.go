package format

import (
	"math"
	"strconv"
)

// Streams renders a summary of each telemetry stream of an activity.
func Streams(streams []Record) string {
	var b block
	b.line("Activity Streams:")

	if len(streams) == 0 {
		b.blank()
		b.line("No streams found.")
		return b.String()
	}

	for _, s := range streams {
		data := s.Slice("data")

		b.blank()
		b.field("Stream", s.String("type"))
		b.field("Name", s.String("name"))
		if s.Has("valueType") {
			b.field("Value Type", s.String("valueType"))
		}
		b.field("Data Points", strconv.Itoa(len(data)))

		st, ok := summarize(data)
		if !ok {
			continue
		}
		b.field("First Value", Number(st.first))
		b.field("Min", Number(st.min))
		b.field("Max", Number(st.max))
		b.field("Average", Number(st.sum/float64(st.n)))
	}

	return b.String()
}

type streamStats struct {
	first, min, max, sum float64
	n                    int
}

// summarize folds the numeric values of data. Nulls and non-numbers are
// skipped; ok is false when nothing numeric remains.
func summarize(data []any) (streamStats, bool) {
	st := streamStats{min: math.Inf(1), max: math.Inf(-1)}
	for _, v := range data {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if st.n == 0 {
			st.first = f
		}
		st.n++
		st.sum += f
		st.min = math.Min(st.min, f)
		st.max = math.Max(st.max, f)
	}
	return st, st.n > 0
}
