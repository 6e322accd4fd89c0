package format

import (
	"fmt"
	"sort"
)

// Intervals.icu records subjective feelings on a 1-4 scale.
var feelingLabels = map[string][4]string{
	"soreness":   {"Low", "Avg", "High", "Extreme"},
	"fatigue":    {"Low", "Avg", "High", "Extreme"},
	"stress":     {"Low", "Avg", "High", "Extreme"},
	"mood":       {"Great", "Good", "OK", "Grumpy"},
	"motivation": {"Extreme", "High", "Avg", "Low"},
	"injury":     {"None", "Niggle", "Poor", "Injured"},
}

var sleepQualityLabels = [4]string{"Great", "Good", "Avg", "Poor"}

// WellnessEntry renders one day of wellness data. Sections without data are
// left out.
func WellnessEntry(w Record) string {
	var b block
	b.field("Date", w.String("id", "date"))

	section(&b, "Training Metrics", func(s *block) {
		optional(s, "Fitness (CTL)", w, "ctl")
		optional(s, "Fatigue (ATL)", w, "atl")
		optional(s, "Ramp Rate", w, "rampRate")
		for _, item := range w.Slice("sportInfo") {
			info, ok := AsRecord(item)
			if !ok || !info.Has("eftp") {
				continue
			}
			s.field(info.String("type")+" eFTP", withUnit(info, " W", "eftp"))
		}
	})

	section(&b, "Vital Signs", func(s *block) {
		optionalUnit(s, "Weight", w, " kg", "weight")
		optionalUnit(s, "Resting HR", w, " bpm", "restingHR")
		optionalUnit(s, "HRV", w, " ms", "hrv")
		optionalUnit(s, "HRV SDNN", w, " ms", "hrvSDNN")
		optionalUnit(s, "SpO2", w, "%", "spO2")
		if w.Has("systolic") && w.Has("diastolic") {
			s.field("Blood Pressure", fmt.Sprintf("%s/%s mmHg", w.String("systolic"), w.String("diastolic")))
		}
		optionalUnit(s, "Respiration", w, " breaths/min", "respiration")
	})

	section(&b, "Sleep", func(s *block) {
		if w.Has("sleepSecs") {
			s.field("Sleep", durationOf(w, "sleepSecs"))
		}
		optional(s, "Sleep Score", w, "sleepScore")
		if q, ok := w.Int("sleepQuality"); ok {
			s.field("Sleep Quality", scaled(q, sleepQualityLabels))
		}
		optionalUnit(s, "Average Sleeping HR", w, " bpm", "avgSleepingHR")
	})

	section(&b, "Subjective Feelings", func(s *block) {
		for _, key := range []string{"soreness", "fatigue", "stress", "mood", "motivation", "injury"} {
			if v, ok := w.Int(key); ok {
				s.field(title(key), scaled(v, feelingLabels[key]))
			}
		}
	})

	section(&b, "Nutrition & Hydration", func(s *block) {
		optionalUnit(s, "Calories Consumed", w, " kcal", "kcalConsumed")
		optionalUnit(s, "Hydration", w, " ml", "hydrationVolume")
		optional(s, "Hydration Score", w, "hydration")
	})

	section(&b, "Activity", func(s *block) {
		optional(s, "Steps", w, "steps")
	})

	if w.Has("comments") {
		b.blank()
		b.field("Comments", w.String("comments"))
	}

	return b.String()
}

// WellnessEntries orders wellness records by date. The API returns either a
// list of records or an object keyed by date.
func WellnessEntries(data any) []Record {
	if list, ok := Records(data); ok {
		return list
	}
	obj, ok := AsRecord(data)
	if !ok {
		return nil
	}

	dates := make([]string, 0, len(obj))
	for date := range obj {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]Record, 0, len(dates))
	for _, date := range dates {
		r, ok := AsRecord(obj[date])
		if !ok {
			continue
		}
		if !r.Has("id", "date") {
			r["id"] = date
		}
		out = append(out, r)
	}
	return out
}

// section writes header and body only when fill produced lines.
func section(b *block, header string, fill func(*block)) {
	var s block
	fill(&s)
	if s.b.Len() == 0 {
		return
	}
	b.blank()
	b.line("%s:", header)
	b.b.WriteString(s.String())
}

func optional(b *block, label string, r Record, key string) {
	if r.Has(key) {
		b.field(label, r.String(key))
	}
}

func optionalUnit(b *block, label string, r Record, unit, key string) {
	if r.Has(key) {
		b.field(label, withUnit(r, unit, key))
	}
}

func scaled(v int64, labels [4]string) string {
	if v < 1 || v > 4 {
		return fmt.Sprintf("%d/4", v)
	}
	return fmt.Sprintf("%d/4 (%s)", v, labels[v-1])
}

func title(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
