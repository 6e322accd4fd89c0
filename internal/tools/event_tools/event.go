package event_tools

import (
	"strings"

	"github.com/teemow/intervals-mcp/internal/intervals"
)

// CategoryWorkout is the event category used for planned workouts.
const CategoryWorkout = "WORKOUT"

// DefaultWorkoutType is used when neither an explicit type nor the name
// identifies the sport.
const DefaultWorkoutType = "Ride"

var workoutTypeKeywords = []struct {
	workoutType string
	keywords    []string
}{
	{"Ride", []string{"bike", "cycle", "cycling", "ride"}},
	{"Run", []string{"run", "running", "jog", "jogging"}},
	{"Swim", []string{"swim", "swimming", "pool"}},
	{"Walk", []string{"walk", "walking", "hike", "hiking"}},
	{"Row", []string{"row", "rowing"}},
}

// ResolveWorkoutType returns explicit when set, otherwise the first sport
// whose keyword occurs in the lowercased name.
func ResolveWorkoutType(name, explicit string) string {
	if explicit != "" {
		return explicit
	}
	lower := strings.ToLower(name)
	for _, candidate := range workoutTypeKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(lower, keyword) {
				return candidate.workoutType
			}
		}
	}
	return DefaultWorkoutType
}

// EventInput holds the arguments of add_or_update_event.
type EventInput struct {
	Name        string
	WorkoutType string
	StartDate   string
	WorkoutDoc  *intervals.WorkoutDoc
	MovingTime  *int
	Distance    *int
}

// EventBody is the JSON payload sent to the events endpoint. Unset optional
// fields are sent as null.
type EventBody struct {
	StartDateLocal string  `json:"start_date_local"`
	Category       string  `json:"category"`
	Name           string  `json:"name"`
	Description    *string `json:"description"`
	Type           string  `json:"type"`
	MovingTime     *int    `json:"moving_time"`
	Distance       *int    `json:"distance"`
}

// NewEventBody builds the request payload for a planned workout.
func NewEventBody(in EventInput) EventBody {
	body := EventBody{
		StartDateLocal: in.StartDate + "T00:00:00",
		Category:       CategoryWorkout,
		Name:           in.Name,
		Type:           ResolveWorkoutType(in.Name, in.WorkoutType),
		MovingTime:     in.MovingTime,
		Distance:       in.Distance,
	}
	if in.WorkoutDoc != nil && (in.WorkoutDoc.Description != "" || len(in.WorkoutDoc.Steps) > 0) {
		description := in.WorkoutDoc.String()
		body.Description = &description
	}
	return body
}
