package delegation

import (
	"strings"
	"testing"
)

func TestTokenWriter_WireFormat(t *testing.T) {
	var buf strings.Builder
	w := NewTokenWriter(&buf)

	w.Text("Let me check that for you. ")
	w.StepStart("check_availability", "Check availability")
	w.Progress("Checking the calendar...")
	w.StepResult("check_availability", StepCompleted, "time is free")
	w.StepEnd("check_availability")
	w.MultiStepInitiated("user asked to book a meeting", "high")
	w.MultiStepComplete()
	w.SeparateMessage("All done!")

	got := buf.String()
	wants := []string{
		"[[PERIN_STEP:start:check_availability:Check availability]]",
		"[[PERIN_PROGRESS:Checking the calendar...]]",
		"[[PERIN_STEP_RESULT:check_availability:completed:time is free]]",
		"[[PERIN_STEP:end:check_availability]]",
		"[[PERIN_MULTI_STEP:initiated:user asked to book a meeting:high]]",
		"[[PERIN_MULTI_STEP:complete]]",
		"[[PERIN_SEPARATE_MESSAGE:All done!]]",
	}
	for _, want := range wants {
		if !strings.Contains(got, want) {
			t.Errorf("stream missing %q\nstream: %s", want, got)
		}
	}
	if !strings.HasPrefix(got, "Let me check that for you. ") {
		t.Error("prose should pass through untouched")
	}
}

func TestTokenWriter_SanitizesArguments(t *testing.T) {
	var buf strings.Builder
	w := NewTokenWriter(&buf)
	w.Progress("line one\nline two ]] sneaky")

	got := buf.String()
	if strings.Count(got, "]]") != 1 {
		t.Errorf("argument broke token framing: %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("argument carried a newline: %q", got)
	}
}

func TestSplitStream(t *testing.T) {
	stream := "Hello! [[PERIN_STEP:start:s1:First step]]working...[[PERIN_MULTI_STEP:complete]] bye"
	segs := SplitStream(stream)

	if len(segs) != 5 {
		t.Fatalf("segments = %d, want 5: %+v", len(segs), segs)
	}
	if segs[0].IsToken || segs[0].Text != "Hello! " {
		t.Errorf("seg0 = %+v, want prose", segs[0])
	}
	if !segs[1].IsToken || segs[1].Name != "STEP" || segs[1].Args[0] != "start" || segs[1].Args[1] != "s1" {
		t.Errorf("seg1 = %+v, want STEP start token", segs[1])
	}
	if segs[2].Text != "working..." {
		t.Errorf("seg2 = %+v, want interleaved prose", segs[2])
	}
	if !segs[3].IsToken || segs[3].Name != "MULTI_STEP" || segs[3].Args[0] != "complete" {
		t.Errorf("seg3 = %+v, want MULTI_STEP complete", segs[3])
	}
	if segs[4].Text != " bye" {
		t.Errorf("seg4 = %+v, want trailing prose", segs[4])
	}
}

func TestSplitStream_UnterminatedPrefixIsProse(t *testing.T) {
	segs := SplitStream("oops [[PERIN_STEP:start")
	if len(segs) != 2 || segs[1].IsToken {
		t.Errorf("segments = %+v, want unterminated prefix kept as prose", segs)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"can we meet tomorrow at 3pm?", "en"},
		{"אפשר להיפגש מחר?", "he"},
		{"هل يمكننا الاجتماع غدا؟", "ar"},
		{"можем встретиться завтра?", "ru"},
		{"明天三点可以见面吗", "zh"},
		{"明日の午後はどうですか", "ja"},
		{"내일 만날 수 있을까요?", "ko"},
		{"hola, ¿podemos reunirnos mañana?", "es"},
		{"bonjour, on peut se voir demain ?", "fr"},
		{"hallo, danke für die Info", "de"},
		{"olá, reunião amanhã?", "pt"},
		{"ciao, grazie mille", "it"},
		{"", "en"},
	}
	for _, c := range cases {
		if got := DetectLanguage(c.text); got != c.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}
