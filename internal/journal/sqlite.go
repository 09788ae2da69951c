package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"
)

// SQLite is the single-node journal backend.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	return &SQLite{db: db}, nil
}

func (s *SQLite) RunMigrations(migrationsPath string) error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLite) Record(ctx context.Context, e Entry) error {
	if err := prepare(&e); err != nil {
		return err
	}
	query := `INSERT INTO webhook_events (id, event_id, event_type, tenant_id, state, error, received_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT (event_id, state) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		e.ID.String(), e.EventID, e.EventType, e.TenantID, e.State, nullable(e.Error), e.ReceivedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	query := `SELECT id, event_id, event_type, tenant_id, state, error, received_at
	          FROM webhook_events
	          WHERE tenant_id = ?
	          ORDER BY received_at DESC
	          LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
