package timeparse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel returns a canned reply for every completion request.
type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return f.reply, f.err
}

// Monday, January 15th 2024, 10:00 UTC.
func fixedClock() time.Time {
	return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
}

func newTestParser(model llms.Model) *Parser {
	p := NewParser(model)
	p.Now = fixedClock
	return p
}

func TestParse_TomorrowAtThreePM(t *testing.T) {
	p := newTestParser(nil)
	r := p.Parse(context.Background(), "tomorrow at 3pm", "", "UTC")

	if r.Method != MethodRegex || r.Confidence != ConfidenceHigh {
		t.Fatalf("method/confidence = %s/%s, want regex/high", r.Method, r.Confidence)
	}
	want := time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)
	if r.Date == nil || !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
}

func TestParse_HebrewHourWithDayFromContext(t *testing.T) {
	p := newTestParser(nil)
	r := p.Parse(context.Background(), "שלוש בצהריים", "אפשר להיפגש מחר?", "UTC")

	if r.Method != MethodRegex || r.Confidence != ConfidenceHigh {
		t.Fatalf("method/confidence = %s/%s, want regex/high", r.Method, r.Confidence)
	}
	want := time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)
	if r.Date == nil || !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
	if r.Metadata["day_source"] != "context" {
		t.Errorf("day_source = %q, want context", r.Metadata["day_source"])
	}
}

func TestParse_WeekdayRollsOverFullWeek(t *testing.T) {
	// The fixed clock is a Monday; "monday" must mean next Monday.
	p := newTestParser(nil)
	r := p.Parse(context.Background(), "monday at 10am", "", "UTC")

	want := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	if r.Date == nil || !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
}

func TestParse_DigitalForms(t *testing.T) {
	cases := []struct {
		input      string
		wantHour   int
		wantMinute int
	}{
		{"today at 14:30", 14, 30},
		{"today at 9am", 9, 0},
		{"today at 12am", 0, 0},
		{"today at 12pm", 12, 0},
		{"today at 3:45pm", 15, 45},
	}
	p := newTestParser(nil)
	for _, c := range cases {
		r := p.Parse(context.Background(), c.input, "", "UTC")
		if r.Date == nil {
			t.Errorf("%q: no date resolved", c.input)
			continue
		}
		if r.Date.Hour() != c.wantHour || r.Date.Minute() != c.wantMinute {
			t.Errorf("%q: got %02d:%02d, want %02d:%02d",
				c.input, r.Date.Hour(), r.Date.Minute(), c.wantHour, c.wantMinute)
		}
	}
}

func TestParse_TimeOnlyWithoutContextFails(t *testing.T) {
	p := newTestParser(nil)
	r := p.Parse(context.Background(), "at 3pm", "", "UTC")
	if r.Date != nil || r.Method != MethodFailed {
		t.Errorf("result = %+v, want failed without a day token", r)
	}
}

func TestParse_NonConfidentLLMDegradesToFailed(t *testing.T) {
	model := &fakeModel{reply: `{"confident": false, "date": null, "time": null, "reasoning": "too vague"}`}
	p := newTestParser(model)
	r := p.Parse(context.Background(), "sometime next week", "", "UTC")

	if r.Date != nil {
		t.Errorf("date = %v, want nil", r.Date)
	}
	if r.Method != MethodFailed || r.Confidence != ConfidenceLow {
		t.Errorf("method/confidence = %s/%s, want failed/low", r.Method, r.Confidence)
	}
	if model.calls != 1 {
		t.Errorf("model calls = %d, want 1", model.calls)
	}
}

func TestParse_ConfidentLLMVerdict(t *testing.T) {
	model := &fakeModel{reply: "Sure, here you go:\n" +
		`{"confident": true, "date": "2024-01-18", "time": "16:30", "reasoning": "Thursday afternoon"}`}
	p := newTestParser(model)
	r := p.Parse(context.Background(), "how about thursday, late afternoon-ish?", "", "UTC")

	if r.Method != MethodLLM || r.Confidence != ConfidenceMedium {
		t.Fatalf("method/confidence = %s/%s, want llm/medium", r.Method, r.Confidence)
	}
	want := time.Date(2024, 1, 18, 16, 30, 0, 0, time.UTC)
	if r.Date == nil || !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
}

func TestParse_MalformedLLMOutput(t *testing.T) {
	cases := []string{
		"I think next Tuesday works best for everyone.",
		`{"confident": true, "date": "2024-01-18", "time": "25:00", "reasoning": "bad hour"}`,
		`{"confident": true, "date": "not-a-date", "time": "10:00", "reasoning": ""}`,
		`{"confident": true, "date": "2024-01-18", "time": null, "reasoning": "missing"}`,
	}
	for _, reply := range cases {
		p := newTestParser(&fakeModel{reply: reply})
		r := p.Parse(context.Background(), "whenever suits", "", "UTC")
		if r.Date != nil || r.Method != MethodFailed {
			t.Errorf("reply %q: result = %+v, want failed", reply, r)
		}
	}
}

func TestParse_ModelErrorDegradesToFailed(t *testing.T) {
	p := newTestParser(&fakeModel{err: errors.New("rate limit")})
	r := p.Parse(context.Background(), "whenever suits", "", "UTC")
	if r.Date != nil || r.Method != MethodFailed || r.Confidence != ConfidenceLow {
		t.Errorf("result = %+v, want failed/low", r)
	}
}

func TestParse_InvalidTimezoneFallsBackToUTC(t *testing.T) {
	p := newTestParser(nil)
	r := p.Parse(context.Background(), "tomorrow at 8am", "", "Mars/Olympus_Mons")
	want := time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)
	if r.Date == nil || !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
}
