package batch

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Result is the outcome of one operation in a batch.
type Result struct {
	ID  string
	Err error
}

// Succeeded reports whether the operation completed without error.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total     int
	Succeeded int
	FailedIDs []string
}

// Failed returns the number of failed operations.
func (s Summary) Failed() int {
	return len(s.FailedIDs)
}

// FailedList renders the failed IDs as "[id1, id2]", or "[]".
func (s Summary) FailedList() string {
	return "[" + strings.Join(s.FailedIDs, ", ") + "]"
}

// Process runs fn for every ID in order and collects one Result per ID.
// A failing item does not stop the batch. Once ctx is done, the remaining
// items fail with the context error without calling fn.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) error) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Err: err})
			continue
		}
		results = append(results, Result{ID: id, Err: fn(ctx, id)})
	}

	return results
}

// Summarize counts successes and collects the failed IDs in order.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			s.Succeeded++
		} else {
			s.FailedIDs = append(s.FailedIDs, r.ID)
		}
	}
	return s
}

// ID converts a JSON identifier, which Intervals.icu sends as a number or a
// string, to its string form.
func ID(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	}
	return "", false
}

// MissingID stands in for the ID of an item that has none.
const MissingID = "None"

// ErrMissingID is the error of an item without a usable "id" field.
var ErrMissingID = errors.New("item has no id")

// ProcessItems is Process over decoded JSON items. Every item yields one
// Result. An item that is not an object or has no usable "id" fails with
// ErrMissingID under the MissingID placeholder, and fn is not called for it.
func ProcessItems(ctx context.Context, items []any, fn func(ctx context.Context, id string) error) []Result {
	results := make([]Result, 0, len(items))

	for _, item := range items {
		obj, _ := item.(map[string]any)
		id, ok := ID(obj["id"])
		if !ok {
			results = append(results, Result{ID: MissingID, Err: ErrMissingID})
			continue
		}
		results = append(results, Process(ctx, []string{id}, fn)...)
	}

	return results
}
