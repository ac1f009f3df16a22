// Package timeparse resolves ambiguous, multilingual meeting-time phrases
// ("tomorrow at 3pm", "שלוש בצהריים") into a concrete local instant. The
// cascade is regex-first so the common case stays fast and deterministic,
// with a single LLM call as fallback for genuinely ambiguous phrasing.
package timeparse

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Method string

const (
	MethodRegex  Method = "regex"
	MethodLLM    Method = "llm"
	MethodFailed Method = "failed"
)

// Result is the outcome of one parse attempt. Date == nil is the only
// failure signal callers need to check; a nil Date means "ask the user to
// clarify", never an error condition.
type Result struct {
	Date          *time.Time
	Confidence    Confidence
	Method        Method
	OriginalInput string
	Metadata      map[string]string
}

// Parser runs the resolution cascade. Model may be nil, in which case the
// LLM fallback is skipped and unresolvable inputs fail directly.
type Parser struct {
	Model llms.Model
	Now   func() time.Time
}

func NewParser(model llms.Model) *Parser {
	return &Parser{Model: model, Now: time.Now}
}

// Parse resolves input against the user's timezone, consulting the recent
// conversation when the input itself carries no day token. It never returns
// an error; every internal failure degrades to a failed Result.
func (p *Parser) Parse(ctx context.Context, input, conversationContext, timezone string) Result {
	failed := Result{
		Confidence:    ConfidenceLow,
		Method:        MethodFailed,
		OriginalInput: input,
	}
	if input == "" {
		return failed
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	now := p.now().In(loc)

	if r, ok := p.parseRegex(input, conversationContext, now, loc); ok {
		r.OriginalInput = input
		return r
	}
	if p.Model != nil {
		if r, ok := p.parseLLM(ctx, input, conversationContext, now, loc); ok {
			r.OriginalInput = input
			return r
		}
	}
	return failed
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
