package delegation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/perinhq/perin/internal/observability"
)

// ProgressFunc lets an executor surface narration while it is still running.
// Every call is written to the stream synchronously, so progress becomes
// visible interleaved with the executor's own external calls.
type ProgressFunc func(message string)

// Executor implements one named unit of work within a run.
type Executor interface {
	ID() string
	Execute(ctx context.Context, session *Session, step StepDefinition, onProgress ProgressFunc) StepResult
}

// ExecutorLookup resolves a step id to its registered executor, or nil.
type ExecutorLookup interface {
	Get(id string) Executor
}

// Orchestrator drives a step list sequentially, narrating lifecycle events
// onto the stream. Steps never run in parallel: the scheduling step depends
// on the availability step's outcome by design.
type Orchestrator struct {
	Registry ExecutorLookup
	Fallback Executor
	Logger   *observability.Logger
}

func NewOrchestrator(registry ExecutorLookup, fallback Executor, logger *observability.Logger) *Orchestrator {
	return &Orchestrator{Registry: registry, Fallback: fallback, Logger: logger}
}

// Execute runs steps in order against the sink. It always returns a context
// whose StepResults align one-to-one with steps; the run ends either when
// every step has been attempted or when a required step fails.
func (o *Orchestrator) Execute(ctx context.Context, session *Session, steps []StepDefinition, sink *TokenWriter) *MultiStepContext {
	mctx := newMultiStepContext(session.SessionID, steps)

	for i := range steps {
		if !mctx.waitWhilePaused(ctx) || ctx.Err() != nil {
			// Client gone or run cancelled; stop without emitting
			// further lifecycle tokens.
			log.Printf("session %s: run cancelled before step %d", session.SessionID, i)
			mctx.setStatus(StatusFailed)
			return mctx
		}

		step := steps[i]
		mctx.CurrentStepIndex = i
		mctx.LastUpdateTime = time.Now()

		sink.StepStart(step.ID, step.Name)
		mctx.StepResults[i].Status = StepRunning
		mctx.StepResults[i].StartTime = time.Now()
		o.logStep(session, step.ID, "start", "")

		result := o.runStep(ctx, session, step, mctx, sink)
		result.StepID = step.ID
		if result.StartTime.IsZero() {
			result.StartTime = mctx.StepResults[i].StartTime
		}
		result.EndTime = time.Now()
		mctx.StepResults[i] = result

		sink.StepResult(step.ID, result.Status, resultText(result))
		sink.StepEnd(step.ID)
		o.logStep(session, step.ID, string(result.Status), result.Error)

		if result.Status == StepFailed {
			if step.Required {
				mctx.setStatus(StatusFailed)
				sink.MultiStepComplete()
				sink.SeparateMessage(o.failureMessage(session, step))
				log.Printf("session %s: required step %s failed, stopping run: %s",
					session.SessionID, step.ID, result.Error)
				return mctx
			}
			log.Printf("session %s: optional step %s failed, continuing: %s",
				session.SessionID, step.ID, result.Error)
		}
	}

	mctx.setStatus(StatusCompleted)
	sink.MultiStepComplete()
	lang := DetectLanguage(session.LastUserMessage)
	sink.SeparateMessage(pickMessage(closingRemarks, lang))
	return mctx
}

// runStep invokes the executor for one step, falling back to the generic
// executor for unknown ids so the state machine always terminates. Executor
// panics are converted into failed results and handled exactly like a
// returned failure.
func (o *Orchestrator) runStep(ctx context.Context, session *Session, step StepDefinition, mctx *MultiStepContext, sink *TokenWriter) (result StepResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: step %s panicked: %v", session.SessionID, step.ID, r)
			result = StepResult{
				Status: StepFailed,
				Error:  fmt.Sprintf("step executor panic: %v", r),
			}
		}
	}()

	executor := o.Registry.Get(step.ID)
	if executor == nil {
		executor = o.Fallback
	}

	onProgress := func(message string) {
		mctx.ProgressMessages = append(mctx.ProgressMessages, message)
		sink.Progress(message)
	}
	return executor.Execute(ctx, session, step, onProgress)
}

// failureMessage picks the short, non-technical copy for a required failure.
// The raw error never reaches the stream.
func (o *Orchestrator) failureMessage(session *Session, step StepDefinition) string {
	lang := DetectLanguage(session.LastUserMessage)
	if step.ID == "check_availability" {
		return pickMessage(conflictMessages, lang)
	}
	return pickMessage(stoppedMessages, lang)
}

func resultText(r StepResult) string {
	if r.ProgressMessage != "" {
		return r.ProgressMessage
	}
	if s, ok := r.Result.(string); ok {
		return s
	}
	return ""
}

func (o *Orchestrator) logStep(session *Session, stepID, phase, errText string) {
	if o.Logger == nil {
		return
	}
	data := map[string]string{"step": stepID, "phase": phase}
	if errText != "" {
		data["error"] = errText
	}
	o.Logger.Log(observability.Event{
		Type:      observability.EventTypeStep,
		SessionID: session.SessionID,
		Data:      data,
	})
}
