package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/perinhq/perin/internal/calendar"
	"github.com/perinhq/perin/internal/delegation"
	"github.com/perinhq/perin/internal/resilience"
)

// ErrCodeReauth marks the terminal "owner must reconnect their calendar"
// condition. It is distinct from every other failure and never retried.
const ErrCodeReauth = "Calendar authentication expired"

// AvailabilityExecutor checks whether the proposed window is free on the
// principal's calendar.
type AvailabilityExecutor struct {
	Calendar calendar.Client
	Breakers *resilience.BreakerStore
	Retry    resilience.RetryConfig
}

func (e *AvailabilityExecutor) ID() string { return "check_availability" }

func (e *AvailabilityExecutor) Execute(ctx context.Context, session *delegation.Session, step delegation.StepDefinition, onProgress delegation.ProgressFunc) delegation.StepResult {
	onProgress(progressMessage(step, "Checking the calendar for that time..."))

	start, end, ok := window(step)
	if !ok {
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Error:  "availability step payload missing meeting window",
		}
	}

	operationID := "calendar-check-" + session.SessionID
	env := e.check(ctx, operationID, session.PrincipalID, start, end)

	switch {
	case env.Error != nil && env.Error.Code == ErrCodeReauth:
		return delegation.StepResult{
			Status:          delegation.StepFailed,
			Error:           ErrCodeReauth,
			ProgressMessage: "The calendar connection has expired — the owner needs to reconnect it before I can check times.",
		}
	case env.Error != nil:
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Error:  env.Error.Message,
		}
	case env.Data.IsAvailable:
		return delegation.StepResult{
			Status: delegation.StepCompleted,
			Result: map[string]any{
				"isAvailable": true,
				"start":       start,
				"end":         end,
			},
			ProgressMessage: "The time is free on the calendar.",
		}
	default:
		// A conflict halts the pipeline when the step is required; the
		// conflict list rides along so narration can count overlaps.
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Result: map[string]any{
				"isAvailable": false,
				"conflicts":   env.Data.ConflictingEvents,
			},
			Error:           conflictSummary(env.Data.ConflictingEvents),
			ProgressMessage: conflictSummary(env.Data.ConflictingEvents),
		}
	}
}

func (e *AvailabilityExecutor) check(ctx context.Context, operationID, principalID string, start, end time.Time) Envelope[*calendar.Availability] {
	avail, err := resilience.Do(ctx, e.Breakers, operationID, e.Retry,
		func(ctx context.Context) (*calendar.Availability, error) {
			return e.Calendar.CheckAvailability(ctx, principalID, start, end)
		})
	if err != nil {
		if calendar.IsReauthError(err) {
			return Fail[*calendar.Availability](ErrCodeReauth, err.Error())
		}
		return Fail[*calendar.Availability]("availability_check_failed", err.Error())
	}
	return Ok(avail)
}

func conflictSummary(conflicts []calendar.Event) string {
	switch len(conflicts) {
	case 0:
		return "That time is not available."
	case 1:
		return "There is 1 event overlapping that time."
	default:
		return fmt.Sprintf("There are %d events overlapping that time.", len(conflicts))
	}
}
