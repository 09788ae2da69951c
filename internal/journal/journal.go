// Package journal records webhook outcomes for operational visibility.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one webhook delivery outcome. Entries are unique per (EventID, State),
// so redelivered events do not pile up duplicates.
type Entry struct {
	ID         uuid.UUID `json:"id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	TenantID   string    `json:"tenant_id"`
	State      string    `json:"state"`
	Error      string    `json:"error,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, tenantID string, limit int) ([]Entry, error)
	Close() error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

var ErrInvalidEntry = errors.New("journal entry needs an event id and a state")

func prepare(e *Entry) error {
	if e.EventID == "" || e.State == "" {
		return ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now().UTC()
	}
	return nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &e.EventID, &e.EventType, &e.TenantID, &e.State, &errText, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
