// Package batch runs one operation per ID and aggregates partial failures.
//
// It backs bulk tools such as deleting every event in a date range: each
// item is attempted independently and the summary lists the IDs that failed.
package batch
