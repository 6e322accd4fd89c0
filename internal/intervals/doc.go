// Package intervals is the HTTP client for the Intervals.icu REST API.
//
// A Client owns a single shared connection handle that is created lazily and
// replaced when it is observed closed. Every request authenticates with HTTP
// Basic auth (username "API_KEY", the API key as password) and returns either
// the decoded JSON payload or an *Error describing what went wrong. Errors are
// always returned, never panicked, so callers branch on the error value before
// treating a payload as domain data.
//
// The package also defines WorkoutDoc, the structured workout definition that
// is rendered into Intervals.icu workout text when events are created.
package intervals
