package store

import "time"

// Meeting is a booked event recorded for reminders and audit.
type Meeting struct {
	ID        int
	SessionID string
	EventID   string
	Summary   string
	StartTime time.Time
	Timezone  string
	Reminded  bool
}
