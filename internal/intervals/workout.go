package intervals

import (
	"fmt"
	"strconv"
	"strings"
)

// Target units understood by Intervals.icu workout text.
const (
	UnitsPercentFTP  = "%ftp"
	UnitsWatts       = "w"
	UnitsPowerZone   = "power_zone"
	UnitsPercentHR   = "%hr"
	UnitsPercentLTHR = "%lthr"
	UnitsHRZone      = "hr_zone"
	UnitsPercentPace = "%pace"
	UnitsPaceZone    = "pace_zone"
	UnitsCadenceRPM  = "rpm"
)

// WorkoutDoc is a structured planned workout. String renders it in the
// Intervals.icu workout description syntax.
type WorkoutDoc struct {
	Description string `json:"description,omitempty"`
	Steps       []Step `json:"steps,omitempty"`
}

// Step is a single workout segment or, when Reps is set, a repeated block of
// nested steps.
type Step struct {
	Text          string   `json:"text,omitempty"`
	Duration      Quantity `json:"duration,omitempty"` // seconds
	Distance      Quantity `json:"distance,omitempty"` // meters
	UntilLapPress bool     `json:"until_lap_press,omitempty"`
	Reps          int      `json:"reps,omitempty"`
	Steps         []Step   `json:"steps,omitempty"`
	Warmup        bool     `json:"warmup,omitempty"`
	Cooldown      bool     `json:"cooldown,omitempty"`
	Ramp          bool     `json:"ramp,omitempty"`
	Freeride      bool     `json:"freeride,omitempty"`
	Free          bool     `json:"free,omitempty"` // alias of Freeride
	Power         *Target  `json:"power,omitempty"`
	HR            *Target  `json:"hr,omitempty"`
	Pace          *Target  `json:"pace,omitempty"`
	Cadence       *Target  `json:"cadence,omitempty"`
}

// Target is an intensity target. Either Value or the Start/End range is set.
type Target struct {
	Value Quantity `json:"value,omitempty"`
	Start Quantity `json:"start,omitempty"`
	End   Quantity `json:"end,omitempty"`
	Units string   `json:"units,omitempty"`
}

// Quantity is a number that also decodes from a JSON string, such as "900"
// for a duration or "Z2" for a zone target.
type Quantity float64

func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimLeft(strings.TrimSpace(unquoted), "Zz")
		if raw == "" {
			*q = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s", data)
	}
	*q = Quantity(f)
	return nil
}

func (d *WorkoutDoc) String() string {
	if d == nil {
		return ""
	}

	var lines []string
	if desc := strings.TrimSpace(d.Description); desc != "" {
		lines = append(lines, desc, "")
	}
	for _, s := range d.Steps {
		lines = append(lines, s.lines()...)
	}

	return strings.TrimSpace(collapseBlankLines(lines))
}

func (s Step) lines() []string {
	if s.Reps > 0 && len(s.Steps) > 0 {
		header := fmt.Sprintf("%dx", s.Reps)
		if s.Text != "" {
			header = s.Text + " " + header
		}
		out := []string{"", header}
		for _, nested := range s.Steps {
			out = append(out, nested.lines()...)
		}
		return append(out, "")
	}

	var out []string
	switch {
	case s.Warmup:
		out = append(out, "", "Warmup")
	case s.Cooldown:
		out = append(out, "", "Cooldown")
	}
	return append(out, "- "+s.line())
}

func (s Step) line() string {
	var parts []string
	if s.Text != "" {
		parts = append(parts, s.Text)
	}

	switch {
	case s.UntilLapPress:
		parts = append(parts, "press lap")
	case s.Duration > 0:
		parts = append(parts, formatStepDuration(float64(s.Duration)))
	case s.Distance > 0:
		parts = append(parts, formatStepDistance(float64(s.Distance)))
	}

	if s.Ramp {
		parts = append(parts, "ramp")
	}
	if s.Freeride || s.Free {
		parts = append(parts, "freeride")
	}
	for _, t := range []*Target{s.Power, s.HR, s.Pace, s.Cadence} {
		if t != nil {
			if rendered := t.String(); rendered != "" {
				parts = append(parts, rendered)
			}
		}
	}

	return strings.Join(parts, " ")
}

func (t *Target) String() string {
	if t == nil {
		return ""
	}

	var amount string
	switch {
	case t.Start != 0 || t.End != 0:
		amount = formatNumber(float64(t.Start)) + "-" + formatNumber(float64(t.End))
	case t.Value != 0:
		amount = formatNumber(float64(t.Value))
	default:
		return ""
	}

	switch strings.ToLower(t.Units) {
	case "", UnitsPercentFTP:
		return amount + "%"
	case UnitsWatts:
		return amount + "w"
	case UnitsPowerZone:
		return zoneRange(amount)
	case UnitsPercentHR:
		return amount + "% HR"
	case UnitsPercentLTHR:
		return amount + "% LTHR"
	case UnitsHRZone:
		return zoneRange(amount) + " HR"
	case UnitsPercentPace:
		return amount + "% Pace"
	case UnitsPaceZone:
		return zoneRange(amount) + " Pace"
	case UnitsCadenceRPM:
		return amount + "rpm"
	default:
		return amount + t.Units
	}
}

// zoneRange turns "2" into "Z2" and "2-3" into "Z2-Z3".
func zoneRange(amount string) string {
	parts := strings.Split(amount, "-")
	for i, p := range parts {
		parts[i] = "Z" + p
	}
	return strings.Join(parts, "-")
}

func formatStepDuration(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
	}
	if m > 0 {
		fmt.Fprintf(&b, "%dm", m)
	}
	if s > 0 || b.Len() == 0 {
		fmt.Fprintf(&b, "%ds", s)
	}
	return b.String()
}

func formatStepDistance(meters float64) string {
	if meters >= 1000 {
		return formatNumber(meters/1000) + "km"
	}
	return formatNumber(meters) + "mtr"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func collapseBlankLines(lines []string) string {
	var b strings.Builder
	blank := true
	for _, l := range lines {
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}
