package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"ruuvari-collector/internal/event/application/forward"
)

const defaultEventTable = "ruuvi_events"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

var (
	ErrNilDB        = errors.New("event repo: nil db")
	ErrInvalidTable = errors.New("event repo: invalid table name")
)

// EventRepository stores forwarded batches, one row per event.
type EventRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*EventRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *EventRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewEventRepository constructs a repository with default table name.
func NewEventRepository(db *sql.DB, opts ...RepositoryOption) (*EventRepository, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	repo := &EventRepository{db: db, table: defaultEventTable}
	for _, opt := range opts {
		opt(repo)
	}
	if !tableNamePattern.MatchString(repo.table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, repo.table)
	}
	return repo, nil
}

// Table returns the table rows are written to.
func (r *EventRepository) Table() string { return r.table }

func (r *EventRepository) Name() string { return "postgres" }

// EnsureSchema creates the event table and its lookup index.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return ErrNilDB
	}
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	batch_id UUID NOT NULL,
	adapter TEXT NOT NULL,
	beacon_address TEXT NOT NULL,
	air_pressure DOUBLE PRECISION NOT NULL,
	humidity DOUBLE PRECISION NOT NULL,
	temperature DOUBLE PRECISION NOT NULL,
	rssi INTEGER NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	received_at TIMESTAMPTZ NOT NULL
)`, r.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %[1]s_beacon_ts_idx ON %[1]s (beacon_address, ts)`, r.table),
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("event repo: ensure schema: %w", err)
		}
	}
	return nil
}

// Forward inserts every event of batch in one transaction.
func (r *EventRepository) Forward(ctx context.Context, batch forward.Batch) error {
	if r == nil || r.db == nil {
		return ErrNilDB
	}
	if len(batch.Events) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	batch_id,
	adapter,
	beacon_address,
	air_pressure,
	humidity,
	temperature,
	rssi,
	ts,
	received_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, evt := range batch.Events {
		if evt.BeaconAddress == "" || evt.Timestamp.IsZero() {
			_ = tx.Rollback()
			return errors.New("event repo: invalid event")
		}
		if _, err := stmt.ExecContext(
			ctx,
			batch.ID.String(),
			batch.Adapter,
			evt.BeaconAddress,
			evt.AirPressure,
			evt.Humidity,
			evt.Temperature,
			evt.RSSI,
			evt.Timestamp,
			batch.ReceivedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
