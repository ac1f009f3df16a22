package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := NewHistoryStore(filepath.Join(t.TempDir(), "perin.db"))
	if err != nil {
		t.Fatalf("NewHistoryStore failed: %v", err)
	}
	t.Cleanup(func() { h.DB.Close() })
	return h
}

func TestHistoryRoundTrip(t *testing.T) {
	h := newTestStore(t)

	if err := h.AddMessage("s1", "human", "can we meet tomorrow?"); err != nil {
		t.Fatal(err)
	}
	if err := h.AddMessage("s1", "ai", "sure, what time?"); err != nil {
		t.Fatal(err)
	}
	if err := h.AddMessage("s2", "human", "unrelated"); err != nil {
		t.Fatal(err)
	}

	history, err := h.GetHistory("s1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d messages, want 2", len(history))
	}
}

func TestRecentContext_HumanOnly(t *testing.T) {
	h := newTestStore(t)

	_ = h.AddMessage("s1", "human", "אפשר להיפגש מחר?")
	_ = h.AddMessage("s1", "ai", "בטח!")
	_ = h.AddMessage("s1", "human", "בשלוש")

	got, err := h.RecentContext("s1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "בטח") {
		t.Errorf("context should carry only the user's messages: %q", got)
	}
	if !strings.Contains(got, "מחר") || !strings.Contains(got, "בשלוש") {
		t.Errorf("context missing user messages: %q", got)
	}
}

func TestMeetingReminderFlow(t *testing.T) {
	h := newTestStore(t)

	soon := time.Now().Add(5 * time.Minute)
	farOut := time.Now().Add(48 * time.Hour)
	if err := h.RecordMeeting("s1", "evt-1", "Intro call", soon, "Asia/Jerusalem"); err != nil {
		t.Fatal(err)
	}
	if err := h.RecordMeeting("s1", "evt-2", "Later", farOut, "UTC"); err != nil {
		t.Fatal(err)
	}

	due, err := h.UpcomingMeetings(15 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].EventID != "evt-1" {
		t.Fatalf("due = %+v, want only the imminent meeting", due)
	}

	if err := h.MarkReminded(due[0].ID); err != nil {
		t.Fatal(err)
	}
	due, err = h.UpcomingMeetings(15 * time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Fatalf("due after reminding = %+v, want none", due)
	}
}
