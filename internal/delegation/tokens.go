package delegation

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Control tokens are bracket-delimited markers multiplexed into the plain
// text stream. Consumers treat them as discrete events and strip them from
// rendered prose. The grammar is wire-compatible with existing clients and
// must not change shape:
//
//	[[PERIN_STEP:start:<stepId>:<stepName>]]
//	[[PERIN_PROGRESS:<message>]]
//	[[PERIN_STEP_RESULT:<stepId>:<status>[:<resultText>]]]
//	[[PERIN_STEP:end:<stepId>]]
//	[[PERIN_MULTI_STEP:complete]]
//	[[PERIN_MULTI_STEP:initiated:<reasoning>:<confidence>]]
//	[[PERIN_SEPARATE_MESSAGE:<message>]]
const (
	tokenPrefix = "[[PERIN_"
	tokenSuffix = "]]"
)

// TokenWriter emits control tokens and prose onto one output stream. A
// failed write (client disconnect) marks the writer dead; later writes are
// dropped and logged instead of being treated as step failures.
type TokenWriter struct {
	w    io.Writer
	dead bool
}

func NewTokenWriter(w io.Writer) *TokenWriter {
	return &TokenWriter{w: w}
}

// Dead reports whether the underlying stream has failed.
func (t *TokenWriter) Dead() bool { return t.dead }

func (t *TokenWriter) emit(s string) {
	if t.dead {
		return
	}
	if _, err := io.WriteString(t.w, s); err != nil {
		log.Printf("stream write failed, dropping further output: %v", err)
		t.dead = true
	}
}

// sanitizeArg keeps token arguments on one line and free of the delimiter
// sequences so the stream stays parseable.
func sanitizeArg(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, tokenSuffix, "")
	return s
}

// Text writes ordinary prose to the stream.
func (t *TokenWriter) Text(s string) {
	t.emit(s)
}

func (t *TokenWriter) StepStart(stepID, stepName string) {
	t.emit(fmt.Sprintf("[[PERIN_STEP:start:%s:%s]]", sanitizeArg(stepID), sanitizeArg(stepName)))
}

func (t *TokenWriter) Progress(message string) {
	t.emit(fmt.Sprintf("[[PERIN_PROGRESS:%s]]", sanitizeArg(message)))
}

func (t *TokenWriter) StepResult(stepID string, status StepStatus, resultText string) {
	if resultText == "" {
		t.emit(fmt.Sprintf("[[PERIN_STEP_RESULT:%s:%s]]", sanitizeArg(stepID), status))
		return
	}
	t.emit(fmt.Sprintf("[[PERIN_STEP_RESULT:%s:%s:%s]]", sanitizeArg(stepID), status, sanitizeArg(resultText)))
}

func (t *TokenWriter) StepEnd(stepID string) {
	t.emit(fmt.Sprintf("[[PERIN_STEP:end:%s]]", sanitizeArg(stepID)))
}

func (t *TokenWriter) MultiStepComplete() {
	t.emit("[[PERIN_MULTI_STEP:complete]]")
}

func (t *TokenWriter) MultiStepInitiated(reasoning, confidence string) {
	t.emit(fmt.Sprintf("[[PERIN_MULTI_STEP:initiated:%s:%s]]", sanitizeArg(reasoning), sanitizeArg(confidence)))
}

func (t *TokenWriter) SeparateMessage(message string) {
	t.emit(fmt.Sprintf("[[PERIN_SEPARATE_MESSAGE:%s]]", sanitizeArg(message)))
}

// Segment is one piece of a consumed stream: either prose or a single
// control token split into its ':'-separated fields.
type Segment struct {
	IsToken bool
	Text    string   // prose, when IsToken is false
	Name    string   // e.g. "STEP", "PROGRESS", "SEPARATE_MESSAGE"
	Args    []string // remaining fields
}

// SplitStream separates prose from control tokens. Gateways use it to render
// a raw stream as discrete messages; ordinary assistant text never contains
// the token prefix, so an unterminated prefix is passed through as prose.
func SplitStream(s string) []Segment {
	var segs []Segment
	for len(s) > 0 {
		start := strings.Index(s, tokenPrefix)
		if start < 0 {
			segs = append(segs, Segment{Text: s})
			break
		}
		if start > 0 {
			segs = append(segs, Segment{Text: s[:start]})
		}
		end := strings.Index(s[start:], tokenSuffix)
		if end < 0 {
			segs = append(segs, Segment{Text: s[start:]})
			break
		}
		body := s[start+len(tokenPrefix) : start+end]
		fields := strings.Split(body, ":")
		segs = append(segs, Segment{
			IsToken: true,
			Name:    fields[0],
			Args:    fields[1:],
		})
		s = s[start+end+len(tokenSuffix):]
	}
	return segs
}
