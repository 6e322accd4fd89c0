package common

import (
	"errors"
	"strings"
)

// NoAthleteIDMessage is returned to the caller when neither the tool
// arguments nor the environment provide an athlete ID.
const NoAthleteIDMessage = "Error: No athlete ID provided and no default ATHLETE_ID found in environment variables."

var errNoAthleteID = errors.New(NoAthleteIDMessage)

// ResolveAthleteID returns explicit when set, otherwise fallback.
func ResolveAthleteID(explicit, fallback string) (string, error) {
	if id := strings.TrimSpace(explicit); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(fallback); id != "" {
		return id, nil
	}
	return "", errNoAthleteID
}

// AthleteFromArgs returns the athlete a tool call is about, for audit
// records. It never fails; an unresolvable athlete yields "".
func AthleteFromArgs(args map[string]any, fallback string) string {
	explicit, _ := args["athlete_id"].(string)
	id, _ := ResolveAthleteID(explicit, fallback)
	return id
}
