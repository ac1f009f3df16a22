package delegate

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/perinhq/perin/internal/store"
)

// Messenger is the outbound half of a gateway, enough for reminders.
type Messenger interface {
	Send(chatID string, text string) error
}

// Reminder polls for meetings starting soon and pings the chat they were
// booked from.
type Reminder struct {
	Store    *store.HistoryStore
	Gateway  Messenger
	Interval time.Duration
	Lead     time.Duration
}

func NewReminder(st *store.HistoryStore, gateway Messenger) *Reminder {
	return &Reminder{
		Store:    st,
		Gateway:  gateway,
		Interval: 30 * time.Second,
		Lead:     15 * time.Minute,
	}
}

func (r *Reminder) Start(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	log.Println("Reminder scheduler started...")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll()
		}
	}
}

func (r *Reminder) poll() {
	meetings, err := r.Store.UpcomingMeetings(r.Lead)
	if err != nil {
		log.Printf("Error polling meetings: %v", err)
		return
	}

	for _, m := range meetings {
		loc, err := time.LoadLocation(m.Timezone)
		if err != nil {
			loc = time.UTC
		}
		when := m.StartTime.In(loc).Format("15:04")

		text := fmt.Sprintf("⏰ Reminder: %q starts at %s.", m.Summary, when)
		if r.Gateway != nil {
			if err := r.Gateway.Send(m.SessionID, text); err != nil {
				log.Printf("Error sending reminder for meeting %d: %v", m.ID, err)
				continue
			}
		}
		if err := r.Store.MarkReminded(m.ID); err != nil {
			log.Printf("Error marking meeting %d reminded: %v", m.ID, err)
		}
	}
}
