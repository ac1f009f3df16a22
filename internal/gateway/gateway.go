package gateway

import (
	"context"
	"strings"

	"github.com/perinhq/perin/internal/delegation"
)

// Messenger defines the interface for communication gateways (Telegram, Discord, etc.)
type Messenger interface {
	// Start begins the message listening loop
	Start() error
	// Send sends a message to a specific chat
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway
	Stop() error
}

// Handler is the conversational brain behind every gateway. It returns the
// raw token-bearing stream for one inbound message.
type Handler interface {
	Handle(ctx context.Context, sessionID, senderName, text string) (string, error)
}

// RenderStream converts a raw token stream into chat-surface output: one main
// message with step narration rendered inline, plus standalone messages for
// each separate-message token. Lifecycle tokens that carry no user-facing
// content (step end, run complete) are dropped.
func RenderStream(stream string) (main string, extras []string) {
	var b strings.Builder
	for _, seg := range delegation.SplitStream(stream) {
		if !seg.IsToken {
			b.WriteString(seg.Text)
			continue
		}
		switch seg.Name {
		case "STEP":
			if len(seg.Args) >= 3 && seg.Args[0] == "start" {
				b.WriteString("\n▸ " + seg.Args[2] + "\n")
			}
		case "PROGRESS":
			if len(seg.Args) >= 1 {
				b.WriteString("  " + seg.Args[0] + "\n")
			}
		case "STEP_RESULT":
			if len(seg.Args) >= 2 {
				mark := "✓"
				if seg.Args[1] == string(delegation.StepFailed) {
					mark = "✗"
				}
				line := "  " + mark
				if len(seg.Args) >= 3 && seg.Args[2] != "" {
					line += " " + seg.Args[2]
				}
				b.WriteString(line + "\n")
			}
		case "SEPARATE_MESSAGE":
			if len(seg.Args) >= 1 && seg.Args[0] != "" {
				extras = append(extras, seg.Args[0])
			}
		}
	}
	return strings.TrimSpace(b.String()), extras
}
