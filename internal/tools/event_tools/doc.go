// Package event_tools provides MCP tools for the Intervals.icu calendar.
//
// The read tools list planned events and show a single event. The write
// tools create and update planned workouts, delete single events and delete
// every event in a date range. Write tools are only registered when the
// server runs with write tools enabled.
//
// Planned workouts accept a structured workout_doc argument which is
// rendered to the Intervals.icu workout text format before upload:
//
//	{
//	  "description": "VO2 max session",
//	  "steps": [
//	    {"warmup": true, "duration": 900, "power": {"value": 60, "units": "%ftp"}},
//	    {"reps": 4, "steps": [
//	      {"duration": 180, "power": {"value": 115, "units": "%ftp"}},
//	      {"duration": 180, "power": {"value": 55, "units": "%ftp"}}
//	    ]},
//	    {"cooldown": true, "duration": 600, "power": {"value": 50, "units": "%ftp"}}
//	  ]
//	}
package event_tools
