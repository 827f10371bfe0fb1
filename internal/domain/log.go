package domain

import "time"

// LogEntry is an append-only pipeline log record, tagged for the admin
// statistics view. The pipeline only ever writes these.
type LogEntry struct {
	ID        string
	Type      string
	Level     string
	Source    string
	Message   string
	Payload   map[string]any
	CreatedAt time.Time
}

// LogStat is one bucket of the admin log-statistics view: a count of
// entries sharing a type, level and day.
type LogStat struct {
	Type  string
	Level string
	Day   time.Time
	Count int64
}
