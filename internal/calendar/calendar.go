// Package calendar talks to the calendar bridge that fronts the principal's
// provider account. Event start/end times cross this boundary as local
// wall-clock strings paired with an IANA timezone; the bridge interprets
// naive timestamps in that timezone, never as UTC.
package calendar

import (
	"context"
	"strings"
	"time"
)

// WallClockLayout is the naive local-time format the bridge expects.
const WallClockLayout = "2006-01-02T15:04:05"

type Event struct {
	ID      string    `json:"id"`
	Summary string    `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

type Availability struct {
	IsAvailable       bool    `json:"isAvailable"`
	ConflictingEvents []Event `json:"conflictingEvents"`
}

type Attendee struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// EventInput is the creation payload. Start and End are local wall-clock
// strings in WallClockLayout, interpreted in TimeZone.
type EventInput struct {
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	TimeZone    string     `json:"timeZone"`
	Attendees   []Attendee `json:"attendees,omitempty"`
}

type CreatedEvent struct {
	ID string `json:"id"`
}

// Client is the collaborator contract the step executors consume.
type Client interface {
	CheckAvailability(ctx context.Context, principalID string, start, end time.Time) (*Availability, error)
	CreateEvent(ctx context.Context, principalID string, input EventInput) (*CreatedEvent, error)
}

// Re-authentication signatures the bridge surfaces as message text when the
// principal's OAuth grant has lapsed.
var reauthSignatures = []string{
	"reauth required",
	"invalid_grant",
	"token has been expired or revoked",
}

// IsReauthError reports whether err means the owner must reconnect their
// calendar. This condition is terminal and must never be retried.
func IsReauthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range reauthSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// FormatWallClock renders t as the bridge's naive local-time string in the
// given location.
func FormatWallClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(WallClockLayout)
}
