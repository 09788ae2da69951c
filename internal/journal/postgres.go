package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(cred *Credentials) (*Postgres, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return &Postgres{db: db}, nil
}

func (p *Postgres) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(p.db, &postgres.Config{
		MigrationsTable: "journal_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
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

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if err := prepare(&e); err != nil {
		return err
	}
	query := `INSERT INTO webhook_events (id, event_id, event_type, tenant_id, state, error, received_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (event_id, state) DO NOTHING`

	_, err := p.db.ExecContext(ctx, query,
		e.ID, e.EventID, e.EventType, e.TenantID, e.State, nullable(e.Error), e.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, tenantID string, limit int) ([]Entry, error) {
	query := `SELECT id, event_id, event_type, tenant_id, state, error, received_at
	          FROM webhook_events
	          WHERE tenant_id = $1
	          ORDER BY received_at DESC
	          LIMIT $2`

	rows, err := p.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook events: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
