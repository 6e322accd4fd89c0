package format

import "fmt"

// ActivitySummary renders the headline figures of an activity.
func ActivitySummary(a Record) string {
	var b block

	b.field("Activity", a.String("name"))
	b.field("ID", a.String("id"))
	b.field("Type", a.String("type"))
	b.field("Date", Date(dateOf(a, "start_date_local", "startTime", "start_date")))
	b.field("Description", a.String("description"))
	b.field("Distance", distanceOf(a, "distance", "icu_distance"))
	b.field("Duration", durationOf(a, "elapsed_time", "duration"))
	b.field("Moving Time", durationOf(a, "moving_time"))
	b.field("Elevation Gain", withUnit(a, " m", "total_elevation_gain"))

	b.blank()
	b.line("Power Data:")
	b.field("Average Power", withUnit(a, " W", "icu_average_watts", "average_watts"))
	b.field("Weighted Avg Power", withUnit(a, " W", "icu_weighted_avg_watts", "weighted_average_watts"))
	b.field("Training Load", a.String("icu_training_load"))
	b.field("FTP", withUnit(a, " W", "icu_ftp"))
	b.field("Variability Index", a.String("icu_variability_index"))
	b.field("Efficiency Factor", a.String("icu_efficiency_factor"))

	b.blank()
	b.line("Heart Rate Data:")
	b.field("Average Heart Rate", withUnit(a, " bpm", "average_heartrate"))
	b.field("Max Heart Rate", withUnit(a, " bpm", "max_heartrate"))
	b.field("LTHR", withUnit(a, " bpm", "lthr", "icu_lthr"))
	b.field("TRIMP", a.String("trimp"))

	b.blank()
	b.line("Other Metrics:")
	b.field("Cadence", withUnit(a, " rpm", "average_cadence"))
	b.field("Calories", a.String("calories"))
	b.field("RPE", a.String("icu_rpe", "perceived_exertion"))

	return b.String()
}

// ActivityDetails renders the summary followed by time-in-zone tables for
// power and heart rate when the activity carries them.
func ActivityDetails(a Record) string {
	out := ActivitySummary(a)

	if zones := powerZones(a.Slice("icu_zone_times")); zones != "" {
		out += "\nPower Zones:\n" + zones
	}
	if zones := hrZones(a.Slice("icu_hr_zone_times")); zones != "" {
		out += "\nHeart Rate Zones:\n" + zones
	}
	return out
}

// powerZones renders [{"id":"Z1","secs":600}, ...].
func powerZones(items []any) string {
	var b block
	for i, item := range items {
		z, ok := AsRecord(item)
		if !ok {
			continue
		}
		secs, ok := z.Float("secs")
		if !ok {
			continue
		}
		id := z.String("id")
		if id == NA {
			id = fmt.Sprintf("Z%d", i+1)
		}
		b.field(id, Duration(secs))
	}
	return b.String()
}

// hrZones renders a plain list of seconds per zone.
func hrZones(items []any) string {
	var b block
	for i, item := range items {
		secs, ok := toFloat(item)
		if !ok {
			continue
		}
		b.field(fmt.Sprintf("Z%d", i+1), Duration(secs))
	}
	return b.String()
}

func dateOf(r Record, keys ...string) string {
	s := r.String(keys...)
	if s == NA {
		return ""
	}
	return s
}
