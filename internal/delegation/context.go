// Package delegation implements the multi-step orchestration engine: the
// per-step state machine, the inline control-token protocol, and the
// narration that keeps an external user informed while the assistant works
// on the principal's behalf.
package delegation

import (
	"context"
	"sync"
	"time"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

type ContextStatus string

const (
	StatusRunning   ContextStatus = "running"
	StatusPaused    ContextStatus = "paused"
	StatusCompleted ContextStatus = "completed"
	StatusFailed    ContextStatus = "failed"
)

// StepDefinition describes one named unit of work. It is assembled by the
// caller and read-only once a run begins. Data carries the step-type-specific
// payload (resolved window, attendee info) opaque to the orchestrator.
type StepDefinition struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	Description              string         `json:"description"`
	Required                 bool           `json:"required"`
	EstimatedDurationSeconds int            `json:"estimatedDurationSeconds"`
	Data                     map[string]any `json:"data,omitempty"`
}

// StepResult tracks one step's lifecycle. Only the orchestrator goroutine
// owning the run mutates it.
type StepResult struct {
	StepID          string     `json:"stepId"`
	Status          StepStatus `json:"status"`
	Result          any        `json:"result,omitempty"`
	Error           string     `json:"error,omitempty"`
	ProgressMessage string     `json:"progressMessage,omitempty"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
}

// Session identifies one delegation conversation and the facts the step
// executors need about it. It is created per scheduling attempt.
type Session struct {
	SessionID       string
	PrincipalID     string
	Timezone        string
	ExternalName    string
	ExternalEmail   string
	LastUserMessage string
}

// MultiStepContext is the live state of one run. It exists exactly as long
// as the streaming response and is never persisted or shared across
// sessions. Status transitions are guarded so Pause/Resume may be called
// from outside the orchestrator goroutine.
type MultiStepContext struct {
	SessionID        string
	CurrentStepIndex int
	TotalSteps       int
	Steps            []StepDefinition
	StepResults      []StepResult
	ProgressMessages []string
	StartTime        time.Time
	LastUpdateTime   time.Time
	CanPause         bool
	CanSkip          bool

	mu     sync.Mutex
	status ContextStatus
}

func newMultiStepContext(sessionID string, steps []StepDefinition) *MultiStepContext {
	results := make([]StepResult, len(steps))
	for i, s := range steps {
		results[i] = StepResult{StepID: s.ID, Status: StepPending}
	}
	return &MultiStepContext{
		SessionID:      sessionID,
		TotalSteps:     len(steps),
		Steps:          steps,
		StepResults:    results,
		StartTime:      time.Now(),
		LastUpdateTime: time.Now(),
		CanPause:       true,
		status:         StatusRunning,
	}
}

// Status returns the context-level status.
func (c *MultiStepContext) Status() ContextStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *MultiStepContext) setStatus(s ContextStatus) {
	c.mu.Lock()
	c.status = s
	c.LastUpdateTime = time.Now()
	c.mu.Unlock()
}

// Pause requests that the run stop before the next step. It only takes
// effect when the context allows pausing; a step already running completes
// regardless.
func (c *MultiStepContext) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.CanPause || c.status != StatusRunning {
		return false
	}
	c.status = StatusPaused
	return true
}

// Resume lifts a pause.
func (c *MultiStepContext) Resume() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPaused {
		return false
	}
	c.status = StatusRunning
	return true
}

// waitWhilePaused blocks between steps while the context is paused,
// polling cooperatively. It returns false when ctx is cancelled.
func (c *MultiStepContext) waitWhilePaused(ctx context.Context) bool {
	for {
		if ctx.Err() != nil {
			return false
		}
		if c.Status() != StatusPaused {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(50 * time.Millisecond):
		}
	}
}
