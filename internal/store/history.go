package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/tmc/langchaingo/llms"
)

type HistoryStore struct {
	DB *sql.DB
}

func NewHistoryStore(dbPath string) (*HistoryStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if not exist
	queries := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			role TEXT,
			content TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS meetings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT,
			event_id TEXT,
			summary TEXT,
			start_time DATETIME,
			timezone TEXT,
			reminded INTEGER DEFAULT 0
		);`,
	}
	for _, q := range queries {
		_, err = db.Exec(q)
		if err != nil {
			return nil, err
		}
	}

	return &HistoryStore{DB: db}, nil
}

func (h *HistoryStore) AddMessage(sessionID string, role string, content string) error {
	query := `INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`
	_, err := h.DB.Exec(query, sessionID, role, content)
	return err
}

func (h *HistoryStore) GetHistory(sessionID string, limit int) ([]llms.MessageContent, error) {
	query := `SELECT role, content FROM messages WHERE session_id = ? ORDER BY timestamp DESC LIMIT ?`
	rows, err := h.DB.Query(query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []llms.MessageContent
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, err
		}

		var msgRole llms.ChatMessageType
		switch role {
		case "human":
			msgRole = llms.ChatMessageTypeHuman
		case "ai":
			msgRole = llms.ChatMessageTypeAI
		case "system":
			msgRole = llms.ChatMessageTypeSystem
		default:
			msgRole = llms.ChatMessageTypeHuman
		}

		history = append(history, llms.MessageContent{
			Role: msgRole,
			Parts: []llms.ContentPart{
				llms.TextPart(content),
			},
		})
	}

	// Reverse to get chronological order
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

// RecentContext returns the user's recent messages as one block of text for
// the datetime cascade's conversation-context scan.
func (h *HistoryStore) RecentContext(sessionID string, limit int) (string, error) {
	query := `SELECT content FROM messages WHERE session_id = ? AND role = 'human' ORDER BY timestamp DESC LIMIT ?`
	rows, err := h.DB.Query(query, sessionID, limit)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		parts = append(parts, content)
	}
	// Chronological order reads more naturally for the parser.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "\n"), nil
}

func (h *HistoryStore) RecordMeeting(sessionID, eventID, summary string, start time.Time, timezone string) error {
	query := `INSERT INTO meetings (session_id, event_id, summary, start_time, timezone) VALUES (?, ?, ?, ?, ?)`
	// Stored as UTC text so sqlite's datetime('now') comparisons work.
	_, err := h.DB.Exec(query, sessionID, eventID, summary, start.UTC().Format("2006-01-02 15:04:05"), timezone)
	return err
}

// UpcomingMeetings returns meetings starting within the window that have not
// been reminded yet.
func (h *HistoryStore) UpcomingMeetings(within time.Duration) ([]Meeting, error) {
	query := `
		SELECT id, session_id, event_id, summary, start_time, timezone
		FROM meetings
		WHERE reminded = 0
		AND start_time > datetime('now')
		AND start_time <= datetime('now', ?)`
	// sqlite datetime modifiers take "+N seconds", not Go duration syntax.
	modifier := fmt.Sprintf("+%d seconds", int(within.Seconds()))
	rows, err := h.DB.Query(query, modifier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meetings []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.SessionID, &m.EventID, &m.Summary, &m.StartTime, &m.Timezone); err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	return meetings, nil
}

func (h *HistoryStore) MarkReminded(id int) error {
	query := `UPDATE meetings SET reminded = 1 WHERE id = ?`
	_, err := h.DB.Exec(query, id)
	return err
}
