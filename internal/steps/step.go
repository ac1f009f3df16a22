// Package steps hosts the registered executors for delegation runs: the
// calendar availability check, meeting creation, and a generic fallback for
// step ids nothing has claimed.
package steps

import (
	"context"
	"time"

	"github.com/perinhq/perin/internal/delegation"
)

// Registry manages the set of available step executors.
type Registry struct {
	executors map[string]delegation.Executor
}

func NewRegistry() *Registry {
	return &Registry{
		executors: make(map[string]delegation.Executor),
	}
}

func (r *Registry) Register(e delegation.Executor) {
	r.executors[e.ID()] = e
}

func (r *Registry) Get(id string) delegation.Executor {
	return r.executors[id]
}

// GenericExecutor handles any step id without a registered executor. It
// simulates the work and reports success, which guarantees the state machine
// terminates even for unknown steps.
type GenericExecutor struct {
	Delay time.Duration
}

func (g *GenericExecutor) ID() string { return "generic" }

func (g *GenericExecutor) Execute(ctx context.Context, session *delegation.Session, step delegation.StepDefinition, onProgress delegation.ProgressFunc) delegation.StepResult {
	onProgress("Working on: " + step.Name)

	delay := g.Delay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return delegation.StepResult{
			Status: delegation.StepFailed,
			Error:  ctx.Err().Error(),
		}
	case <-time.After(delay):
	}

	return delegation.StepResult{
		Status:          delegation.StepCompleted,
		Result:          "done",
		ProgressMessage: step.Name + " completed",
	}
}

// progressMessage prefers caller-supplied, language-matched narration from
// the step payload over the executor's static default.
func progressMessage(step delegation.StepDefinition, fallback string) string {
	if msg, ok := step.Data["progress_message"].(string); ok && msg != "" {
		return msg
	}
	return fallback
}

// window pulls the resolved meeting window out of the step payload.
func window(step delegation.StepDefinition) (start, end time.Time, ok bool) {
	start, sok := step.Data["start"].(time.Time)
	end, eok := step.Data["end"].(time.Time)
	return start, end, sok && eok
}
