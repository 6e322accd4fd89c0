package common

import (
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// DateLayout is the YYYY-MM-DD format used by every date argument.
const DateLayout = time.DateOnly

// InvalidDateMessage is returned for any date argument that is not YYYY-MM-DD.
const InvalidDateMessage = "Invalid date format. Please use YYYY-MM-DD."

var errInvalidDate = errors.New(InvalidDateMessage)

// Lookback and look-ahead windows for date range defaults.
const (
	DefaultLookbackDays  = 30
	DefaultLookaheadDays = 30
)

// ValidateDate accepts a calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if len(s) != len(DateLayout) {
		return errInvalidDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return errInvalidDate
	}
	return nil
}

// DefaultStartDate is the start of the default lookback range.
func DefaultStartDate(now time.Time) string {
	return now.AddDate(0, 0, -DefaultLookbackDays).Format(DateLayout)
}

// DefaultEndDate is today.
func DefaultEndDate(now time.Time) string {
	return now.Format(DateLayout)
}

// DefaultFutureEndDate is the end of the default look-ahead range.
func DefaultFutureEndDate(now time.Time) string {
	return now.AddDate(0, 0, DefaultLookaheadDays).Format(DateLayout)
}

// DateArg returns the date argument key, or fallback when it is absent, and
// validates the result.
func DateArg(request mcp.CallToolRequest, key, fallback string) (string, error) {
	date := request.GetString(key, "")
	if date == "" {
		date = fallback
	}
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	return date, nil
}
