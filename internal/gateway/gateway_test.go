package gateway

import (
	"strings"
	"testing"
)

func TestRenderStream(t *testing.T) {
	stream := "On it! " +
		"[[PERIN_STEP:start:check_availability:Check availability]]" +
		"[[PERIN_PROGRESS:Checking the calendar...]]" +
		"[[PERIN_STEP_RESULT:check_availability:completed:time is free]]" +
		"[[PERIN_STEP:end:check_availability]]" +
		"[[PERIN_MULTI_STEP:complete]]" +
		"[[PERIN_SEPARATE_MESSAGE:Anything else I can help with?]]"

	main, extras := RenderStream(stream)

	if !strings.HasPrefix(main, "On it!") {
		t.Errorf("main should start with the prose: %q", main)
	}
	for _, want := range []string{"▸ Check availability", "Checking the calendar...", "✓ time is free"} {
		if !strings.Contains(main, want) {
			t.Errorf("main missing %q:\n%s", want, main)
		}
	}
	if strings.Contains(main, "[[PERIN") {
		t.Errorf("raw tokens leaked into main: %q", main)
	}
	if len(extras) != 1 || extras[0] != "Anything else I can help with?" {
		t.Errorf("extras = %v, want the separate message alone", extras)
	}
}

func TestRenderStream_FailedStep(t *testing.T) {
	stream := "[[PERIN_STEP_RESULT:check_availability:failed]]"
	main, _ := RenderStream(stream)
	if !strings.Contains(main, "✗") {
		t.Errorf("failed step should render a cross: %q", main)
	}
}

func TestRenderStream_PlainProse(t *testing.T) {
	main, extras := RenderStream("just a normal reply")
	if main != "just a normal reply" || len(extras) != 0 {
		t.Errorf("got %q / %v", main, extras)
	}
}
