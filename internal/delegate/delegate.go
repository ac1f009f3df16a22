// Package delegate is the session brain: it takes one inbound chat message
// and drives the full pipeline — intent analysis, datetime resolution,
// policy screening, then the multi-step engine — returning the raw token
// stream for the gateway to render.
package delegate

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/perinhq/perin/internal/delegation"
	"github.com/perinhq/perin/internal/governance"
	"github.com/perinhq/perin/internal/intake"
	"github.com/perinhq/perin/internal/observability"
	"github.com/perinhq/perin/internal/store"
	"github.com/perinhq/perin/internal/timeparse"
	"github.com/perinhq/perin/pkg/config"
)

type Delegate struct {
	Model        llms.Model
	Analyzer     *intake.Analyzer
	Parser       *timeparse.Parser
	Orchestrator *delegation.Orchestrator
	History      *store.HistoryStore
	Policy       governance.PolicyEngine
	Logger       *observability.Logger
	Config       *config.Config
}

func NewDelegate(model llms.Model, analyzer *intake.Analyzer, parser *timeparse.Parser,
	orch *delegation.Orchestrator, history *store.HistoryStore,
	policy governance.PolicyEngine, logger *observability.Logger, cfg *config.Config) *Delegate {
	return &Delegate{
		Model:        model,
		Analyzer:     analyzer,
		Parser:       parser,
		Orchestrator: orch,
		History:      history,
		Policy:       policy,
		Logger:       logger,
		Config:       cfg,
	}
}

var clarifyMessages = map[string]string{
	"en": "I'd love to set that up — what day and time works for you?",
	"he": "אשמח לקבוע — באיזה יום ושעה נוח לך?",
}

var deniedMessages = map[string]string{
	"en": "I'm not able to do that on the owner's behalf.",
	"he": "אני לא יכול לבצע את זה בשם הבעלים.",
}

// Handle processes one inbound message end to end and returns the raw
// token-bearing stream. It never returns an error for a scheduling failure;
// those are narrated on the stream. Errors here mean the pipeline itself
// could not run.
func (d *Delegate) Handle(ctx context.Context, sessionID, senderName, text string) (string, error) {
	runID := uuid.NewString()
	observability.SetStatus(observability.RoleDelegating, sessionID)
	defer observability.SetStatus(observability.RoleIdle, "")

	if err := d.History.AddMessage(sessionID, "human", text); err != nil {
		log.Printf("run %s: failed to record message: %v", runID, err)
	}
	recent, err := d.History.RecentContext(sessionID, 5)
	if err != nil {
		log.Printf("run %s: failed to load context: %v", runID, err)
	}

	analysis := d.Analyzer.Analyze(ctx, text, recent)
	d.Logger.LogIntent(sessionID, analysis.IsScheduling, analysis.Confidence, analysis.Reasoning)

	if !analysis.IsScheduling {
		reply := d.chat(ctx, sessionID, text)
		d.recordReply(sessionID, reply)
		return reply, nil
	}

	tz := d.Config.Scheduling.DefaultTimezone
	parse := d.Parser.Parse(ctx, text, recent, tz)
	d.Logger.LogParse(sessionID, string(parse.Method), string(parse.Confidence), text)

	lang := delegation.DetectLanguage(text)
	if parse.Date == nil {
		reply := pick(clarifyMessages, lang)
		d.recordReply(sessionID, reply)
		return reply, nil
	}

	steps := d.Analyzer.BuildSteps(analysis, *parse.Date)
	steps, denied := d.screen(ctx, sessionID, steps)
	if denied {
		reply := pick(deniedMessages, lang)
		d.recordReply(sessionID, reply)
		return reply, nil
	}

	var buf strings.Builder
	sink := delegation.NewTokenWriter(&buf)
	sink.MultiStepInitiated(analysis.Reasoning, confidenceBucket(analysis.Confidence))

	session := &delegation.Session{
		SessionID:       sessionID,
		PrincipalID:     d.Config.App.PrincipalID,
		Timezone:        tz,
		ExternalName:    senderName,
		LastUserMessage: text,
	}
	mctx := d.Orchestrator.Execute(ctx, session, steps, sink)

	if mctx.Status() == delegation.StatusCompleted {
		d.recordBooking(sessionID, analysis.Title, mctx)
	}

	stream := buf.String()
	d.recordReply(sessionID, proseOnly(stream))
	return stream, nil
}

// screen drops policy-denied optional steps and reports whether a required
// step was denied, which aborts the whole run before any token is emitted.
func (d *Delegate) screen(ctx context.Context, sessionID string, steps []delegation.StepDefinition) ([]delegation.StepDefinition, bool) {
	if d.Policy == nil {
		return steps, false
	}
	kept := steps[:0]
	for _, s := range steps {
		res, err := d.Policy.Evaluate(ctx, governance.Request{
			StepID:      s.ID,
			Description: s.Description,
			SessionID:   sessionID,
		})
		if err != nil {
			log.Printf("policy evaluation failed for %s: %v", s.ID, err)
			res = governance.Result{Effect: governance.EffectAllow}
		}
		d.Logger.Log(observability.Event{
			Type:      observability.EventTypePolicyCheck,
			SessionID: sessionID,
			StepID:    s.ID,
			Data:      map[string]string{"effect": string(res.Effect), "reason": res.Reason},
		})
		if res.Effect == governance.EffectDeny {
			if s.Required {
				return nil, true
			}
			continue
		}
		kept = append(kept, s)
	}
	return kept, false
}

// recordBooking persists the created meeting so the reminder scheduler can
// pick it up. Missing payload fields are tolerated; reminders are best
// effort.
func (d *Delegate) recordBooking(sessionID, title string, mctx *delegation.MultiStepContext) {
	for _, r := range mctx.StepResults {
		if r.StepID != "schedule_meeting" || r.Status != delegation.StepCompleted {
			continue
		}
		payload, ok := r.Result.(map[string]any)
		if !ok {
			return
		}
		eventID, _ := payload["eventId"].(string)
		startStr, _ := payload["start"].(string)

		tz := d.Config.Scheduling.DefaultTimezone
		loc, err := time.LoadLocation(tz)
		if err != nil {
			loc = time.UTC
		}
		start, err := time.ParseInLocation("2006-01-02T15:04:05", startStr, loc)
		if err != nil {
			log.Printf("session %s: unparseable booking start %q: %v", sessionID, startStr, err)
			return
		}
		if title == "" {
			title = "Meeting"
		}
		if err := d.History.RecordMeeting(sessionID, eventID, title, start, tz); err != nil {
			log.Printf("session %s: failed to record meeting: %v", sessionID, err)
		}
		return
	}
}

// chat answers non-scheduling messages conversationally, with recent history
// for continuity. Without a model a short static reply keeps the channel
// responsive.
func (d *Delegate) chat(ctx context.Context, sessionID, text string) string {
	fallback := "I'm " + d.Config.App.Name + ", the owner's scheduling assistant. I can check availability and book meetings — just tell me when."
	if d.Model == nil {
		return fallback
	}

	history, err := d.History.GetHistory(sessionID, 10)
	if err != nil {
		log.Printf("session %s: failed to load history: %v", sessionID, err)
	}

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(
				"You are " + d.Config.App.Name + ", a warm, concise assistant who schedules meetings on the owner's behalf. Answer briefly and steer toward scheduling when relevant.")},
		},
	}
	messages = append(messages, history...)
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	})

	resp, err := d.Model.GenerateContent(ctx, messages)
	if err != nil || len(resp.Choices) == 0 {
		log.Printf("session %s: chat generation failed: %v", sessionID, err)
		return fallback
	}
	d.Logger.LogLLM(sessionID, text, resp.Choices[0].Content)
	return resp.Choices[0].Content
}

func (d *Delegate) recordReply(sessionID, reply string) {
	if reply == "" {
		return
	}
	if err := d.History.AddMessage(sessionID, "ai", reply); err != nil {
		log.Printf("session %s: failed to record reply: %v", sessionID, err)
	}
}

// proseOnly strips control tokens so stored history stays readable, keeping
// separate messages since they are user-visible.
func proseOnly(stream string) string {
	var parts []string
	for _, seg := range delegation.SplitStream(stream) {
		text := ""
		if !seg.IsToken {
			text = strings.TrimSpace(seg.Text)
		} else if seg.Name == "SEPARATE_MESSAGE" && len(seg.Args) > 0 {
			text = strings.TrimSpace(seg.Args[0])
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func confidenceBucket(c float64) string {
	switch {
	case c >= 0.8:
		return "high"
	case c >= 0.5:
		return "medium"
	default:
		return "low"
	}
}

func pick(table map[string]string, lang string) string {
	if msg, ok := table[lang]; ok {
		return msg
	}
	return table["en"]
}
