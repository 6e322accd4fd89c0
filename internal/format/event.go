package format

import (
	"strconv"
	"strings"
)

// EventType classifies a calendar event as Workout, Race or Other.
func EventType(e Record) string {
	switch {
	case e.Bool("race"), strings.HasPrefix(e.String("category"), "RACE"):
		return "Race"
	case e.Has("workout"), e.String("category") == "WORKOUT":
		return "Workout"
	}
	return "Other"
}

// EventSummary renders the one-block listing used by get_events.
func EventSummary(e Record) string {
	var b block
	b.field("Date", Date(dateOf(e, "start_date_local", "date")))
	b.field("ID", e.String("id"))
	b.field("Type", EventType(e))
	b.field("Name", e.String("name"))
	b.field("Description", e.String("description"))
	return b.String()
}

// EventDetails renders a single event with its workout and race blocks.
func EventDetails(e Record) string {
	var b block
	b.line("Event Details:")
	b.blank()
	b.field("ID", e.String("id"))
	b.field("Date", Date(dateOf(e, "start_date_local", "date")))
	b.field("Name", e.String("name"))
	b.field("Description", e.String("description"))
	b.field("Type", EventType(e))

	if e.Has("category") {
		b.field("Category", e.String("category"))
	}
	if e.Has("type") {
		b.field("Sport", e.String("type"))
	}
	if e.Has("icu_training_load") {
		b.field("Planned Load", e.String("icu_training_load"))
	}
	if e.Has("moving_time") {
		b.field("Moving Time", durationOf(e, "moving_time"))
	}

	if w, ok := e.Map("workout"); ok {
		b.blank()
		b.line("Workout Information:")
		b.field("Workout ID", w.String("id"))
		b.field("Sport", w.String("sport", "type"))
		b.field("Duration", durationOf(w, "duration", "moving_time"))
		b.field("TSS", w.String("tss", "icu_training_load"))
		if intervals := w.Slice("intervals"); intervals != nil {
			b.field("Intervals", strconv.Itoa(len(intervals)))
		}
	}

	if e.Bool("race") {
		b.blank()
		b.line("Race Information:")
		b.field("Priority", e.String("priority"))
		b.field("Result", e.String("result"))
	}

	return b.String()
}
