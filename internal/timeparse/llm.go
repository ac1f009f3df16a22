package timeparse

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

const llmPromptTemplate = `You resolve a meeting date and time from a user's message.

Current local time: %s
Timezone: %s
Recent conversation:
%s

User message: %q

Respond with exactly one JSON object and nothing else:
{"confident": true|false, "date": "YYYY-MM-DD" or null, "time": "HH:MM" or null, "reasoning": "short explanation"}

Set "confident" to false when the message does not pin down a specific day and
time. Do not guess.`

type llmVerdict struct {
	Confident bool    `json:"confident"`
	Date      *string `json:"date"`
	Time      *string `json:"time"`
	Reasoning string  `json:"reasoning"`
}

// parseLLM is the second stage of the cascade: one model call, strict JSON
// out, no guessing. A non-confident verdict, missing fields, or out-of-bounds
// components all count as "no match", never as an error.
func (p *Parser) parseLLM(ctx context.Context, input, conversationContext string, now time.Time, loc *time.Location) (Result, bool) {
	prompt := fmt.Sprintf(llmPromptTemplate,
		now.Format("Monday, 2006-01-02 15:04"), loc.String(), conversationContext, input)

	resp, err := p.Model.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(prompt)},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return Result{}, false
	}

	verdict, ok := decodeVerdict(resp.Choices[0].Content)
	if !ok || !verdict.Confident || verdict.Date == nil || verdict.Time == nil {
		return Result{}, false
	}

	day, err := time.ParseInLocation("2006-01-02", *verdict.Date, loc)
	if err != nil {
		return Result{}, false
	}
	parts := strings.SplitN(*verdict.Time, ":", 2)
	if len(parts) != 2 {
		return Result{}, false
	}
	hour, err1 := parseBounded(parts[0], 23)
	minute, err2 := parseBounded(parts[1], 59)
	if err1 != nil || err2 != nil {
		return Result{}, false
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return Result{
		Date:       &date,
		Confidence: ConfidenceMedium,
		Method:     MethodLLM,
		Metadata:   map[string]string{"reasoning": verdict.Reasoning},
	}, true
}

// decodeVerdict pulls the first JSON object out of the model's reply. Models
// wrap JSON in prose or code fences often enough that a plain Unmarshal of
// the whole reply is not good enough.
func decodeVerdict(content string) (llmVerdict, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return llmVerdict{}, false
	}
	var v llmVerdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &v); err != nil {
		return llmVerdict{}, false
	}
	return v, true
}

func parseBounded(s string, max int) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, err
	}
	if n < 0 || n > max {
		return 0, fmt.Errorf("component %d out of range", n)
	}
	return n, nil
}
