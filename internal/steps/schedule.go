package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/perinhq/perin/internal/calendar"
	"github.com/perinhq/perin/internal/delegation"
	"github.com/perinhq/perin/internal/resilience"
)

// ScheduleExecutor creates the meeting on the principal's calendar.
type ScheduleExecutor struct {
	Calendar calendar.Client
	Breakers *resilience.BreakerStore
	Retry    resilience.RetryConfig

	// sanitizer strips markup from attendee-supplied text before it is
	// embedded in the event description.
	sanitizer *bluemonday.Policy
}

func NewScheduleExecutor(client calendar.Client, breakers *resilience.BreakerStore, retry resilience.RetryConfig) *ScheduleExecutor {
	return &ScheduleExecutor{
		Calendar:  client,
		Breakers:  breakers,
		Retry:     retry,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

func (e *ScheduleExecutor) ID() string { return "schedule_meeting" }

func (e *ScheduleExecutor) Execute(ctx context.Context, session *delegation.Session, step delegation.StepDefinition, onProgress delegation.ProgressFunc) delegation.StepResult {
	onProgress(progressMessage(step, "Booking the meeting..."))

	start, end, ok := window(step)
	if !ok {
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Error:  "schedule step payload missing meeting window",
		}
	}

	input := e.buildEvent(session, step, start, end)
	operationID := "calendar-create-" + session.SessionID

	created, err := resilience.Do(ctx, e.Breakers, operationID, e.Retry,
		func(ctx context.Context) (*calendar.CreatedEvent, error) {
			return e.Calendar.CreateEvent(ctx, session.PrincipalID, input)
		})
	if err != nil {
		if calendar.IsReauthError(err) {
			return delegation.StepResult{
				Status:          delegation.StepFailed,
				Error:           ErrCodeReauth,
				ProgressMessage: "The calendar connection has expired — the owner needs to reconnect it before I can book.",
			}
		}
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Error:  err.Error(),
		}
	}

	confirmation := fmt.Sprintf("Booked %q for %s at %s (%s).",
		input.Summary,
		start.Format("Monday, January 2"),
		start.Format("15:04"),
		input.TimeZone)
	return delegation.StepResult{
		Status: delegation.StepCompleted,
		Result: map[string]any{
			"eventId": created.ID,
			"start":   input.Start,
			"end":     input.End,
		},
		ProgressMessage: confirmation,
	}
}

// buildEvent assembles the creation payload. Start and end are local
// wall-clock strings with an explicit IANA timezone: the bridge interprets
// naive timestamps in that timezone, so a UTC suffix here would shift the
// meeting for anyone not on UTC.
func (e *ScheduleExecutor) buildEvent(session *delegation.Session, step delegation.StepDefinition, start, end time.Time) calendar.EventInput {
	loc, err := time.LoadLocation(session.Timezone)
	if err != nil {
		loc = time.UTC
	}

	title, _ := step.Data["title"].(string)
	name := e.sanitizer.Sanitize(session.ExternalName)
	email := e.sanitizer.Sanitize(session.ExternalEmail)
	if title == "" {
		if name != "" {
			title = "Meeting with " + name
		} else {
			title = "Meeting"
		}
	}

	description := "Scheduled by Perin on behalf of the calendar owner."
	if name != "" && email != "" {
		description = fmt.Sprintf("Meeting with %s (%s), scheduled by Perin.", name, email)
	} else if name != "" {
		description = fmt.Sprintf("Meeting with %s, scheduled by Perin.", name)
	}

	input := calendar.EventInput{
		Summary:     title,
		Description: description,
		Start:       calendar.FormatWallClock(start, loc),
		End:         calendar.FormatWallClock(end, loc),
		TimeZone:    loc.String(),
	}
	if email != "" {
		input.Attendees = []calendar.Attendee{{Email: email, Name: name}}
	}
	return input
}
