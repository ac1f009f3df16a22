// Package intake turns raw user text and conversation history into a
// scheduling-intent verdict and the structured step inputs the orchestrator
// consumes. It sits upstream of the engine: one LLM call with a
// deterministic keyword fallback, never an exception.
package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/perinhq/perin/internal/delegation"
	"github.com/tmc/langchaingo/llms"
)

// Analysis is the intent verdict for one user message.
type Analysis struct {
	IsScheduling    bool    `json:"is_scheduling"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	Title           string  `json:"title"`
	DurationMinutes int     `json:"duration_minutes"`
}

type Analyzer struct {
	Model           llms.Model
	ConfidenceFloor float64
	DefaultDuration time.Duration
}

func NewAnalyzer(model llms.Model, confidenceFloor float64, defaultDuration time.Duration) *Analyzer {
	return &Analyzer{
		Model:           model,
		ConfidenceFloor: confidenceFloor,
		DefaultDuration: defaultDuration,
	}
}

const analysisPrompt = `You decide whether a message to a scheduling assistant is asking to set up a meeting.

Recent conversation:
%s

Message: %q

Respond with exactly one JSON object and nothing else:
{"is_scheduling": true|false, "confidence": 0.0-1.0, "reasoning": "short", "title": "meeting title or empty", "duration_minutes": minutes or 0}`

// Scheduling verbs for the deterministic fallback, English and Hebrew.
var schedulingKeywords = []string{
	"schedule", "book", "meeting", "meet", "appointment", "set up a call",
	"calendar", "available", "availability",
	"פגישה", "לקבוע", "להיפגש", "פנוי", "פנויה", "ביומן",
}

// Analyze classifies one message. Model failures and malformed output fall
// back to keyword matching rather than surfacing an error.
func (a *Analyzer) Analyze(ctx context.Context, text, conversationContext string) Analysis {
	if a.Model != nil {
		if verdict, ok := a.analyzeLLM(ctx, text, conversationContext); ok {
			if verdict.Confidence < a.ConfidenceFloor {
				verdict.IsScheduling = false
			}
			return verdict
		}
	}
	return a.analyzeKeywords(text)
}

func (a *Analyzer) analyzeLLM(ctx context.Context, text, conversationContext string) (Analysis, bool) {
	prompt := fmt.Sprintf(analysisPrompt, conversationContext, text)
	resp, err := a.Model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return Analysis{}, false
	}

	content := resp.Choices[0].Content
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return Analysis{}, false
	}
	var verdict Analysis
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return Analysis{}, false
	}
	return verdict, true
}

func (a *Analyzer) analyzeKeywords(text string) Analysis {
	lower := strings.ToLower(text)
	for _, kw := range schedulingKeywords {
		if strings.Contains(lower, kw) {
			return Analysis{
				IsScheduling: true,
				Confidence:   0.5,
				Reasoning:    "keyword match: " + kw,
			}
		}
	}
	return Analysis{Reasoning: "no scheduling keywords"}
}

// BuildSteps assembles the two-step run for a resolved meeting window. Both
// steps are required: scheduling depends on the availability outcome.
func (a *Analyzer) BuildSteps(analysis Analysis, start time.Time) []delegation.StepDefinition {
	duration := a.DefaultDuration
	if analysis.DurationMinutes > 0 {
		duration = time.Duration(analysis.DurationMinutes) * time.Minute
	}
	end := start.Add(duration)

	data := map[string]any{"start": start, "end": end}
	scheduleData := map[string]any{"start": start, "end": end}
	if analysis.Title != "" {
		scheduleData["title"] = analysis.Title
	}

	return []delegation.StepDefinition{
		{
			ID:                       "check_availability",
			Name:                     "Check availability",
			Description:              "Check the proposed window against the calendar",
			Required:                 true,
			EstimatedDurationSeconds: 5,
			Data:                     data,
		},
		{
			ID:                       "schedule_meeting",
			Name:                     "Schedule meeting",
			Description:              "Create the event on the calendar",
			Required:                 true,
			EstimatedDurationSeconds: 10,
			Data:                     scheduleData,
		},
	}
}
