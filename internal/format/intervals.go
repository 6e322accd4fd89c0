package format

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

var intervalColumns = []any{"#", "Label", "Type", "Duration", "Distance", "Avg W", "Max W", "Avg HR", "Max HR", "Cadence"}

// Intervals renders the interval splits of an activity as a table, followed
// by the interval groups. data is the object returned by the intervals
// endpoint ({"icu_intervals": [...], "icu_groups": [...]}) or a bare list.
func Intervals(data any) (string, error) {
	var intervals, groups []any
	if r, ok := AsRecord(data); ok {
		intervals = r.Slice("icu_intervals")
		groups = r.Slice("icu_groups")
	} else if list, ok := data.([]any); ok {
		intervals = list
	}

	var out strings.Builder
	out.WriteString("Intervals Analysis:\n\n")

	rows := intervalRows(intervals)
	if len(rows) == 0 {
		out.WriteString("No intervals found.\n")
	} else {
		table := tablewriter.NewWriter(&out)
		table.Header(intervalColumns...)
		for _, row := range rows {
			if err := table.Append(row...); err != nil {
				return "", fmt.Errorf("failed to append interval row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return "", fmt.Errorf("failed to render interval table: %w", err)
		}
	}

	if g := intervalGroups(groups); g != "" {
		out.WriteString("\nInterval Groups:\n")
		out.WriteString(g)
	}

	return out.String(), nil
}

func intervalRows(items []any) [][]any {
	rows := make([][]any, 0, len(items))
	for i, item := range items {
		iv, ok := AsRecord(item)
		if !ok {
			continue
		}
		rows = append(rows, []any{
			fmt.Sprintf("%d", i+1),
			iv.String("label"),
			iv.String("type"),
			durationOf(iv, "elapsed_time", "moving_time"),
			distanceOf(iv, "distance"),
			iv.String("average_watts"),
			iv.String("max_watts"),
			iv.String("average_heartrate"),
			iv.String("max_heartrate"),
			iv.String("average_cadence"),
		})
	}
	return rows
}

func intervalGroups(items []any) string {
	var b block
	for _, item := range items {
		g, ok := AsRecord(item)
		if !ok {
			continue
		}
		b.line("- %s: %sx %s, avg %s W, avg HR %s bpm",
			g.String("id"),
			g.String("count"),
			durationOf(g, "elapsed_time", "moving_time"),
			g.String("average_watts"),
			g.String("average_heartrate"),
		)
	}
	return b.String()
}
