// Package format renders Intervals.icu API payloads as plain text blocks.
//
// Every function is pure: it takes a decoded JSON object (a Record) and
// returns multi-line text. Missing fields render as "N/A", durations in
// seconds render as "Xh Ym" and distances in meters render as kilometers.
package format
