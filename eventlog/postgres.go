package eventlog

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresJournal persists records in PostgreSQL, for deployments where the
// journal is shared with an external indexer.
type PostgresJournal struct {
	mu   sync.Mutex
	pool *pgxpool.Pool
	seq  uint64
}

// NewPostgresJournal connects to databaseURL and prepares the schema.
func NewPostgresJournal(ctx context.Context, databaseURL string) (*PostgresJournal, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("eventlog: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog: ping database: %w", err)
	}

	j := &PostgresJournal{pool: pool}
	if err := j.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog: migrate: %w", err)
	}

	var max *int64
	if err := pool.QueryRow(ctx, `SELECT MAX(seq) FROM records`).Scan(&max); err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventlog: read sequence: %w", err)
	}
	if max != nil {
		j.seq = uint64(*max) + 1
	}
	return j, nil
}

func (j *PostgresJournal) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id UUID PRIMARY KEY,
		seq BIGINT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		payload JSONB NOT NULL,
		at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
	`
	_, err := j.pool.Exec(ctx, schema)
	return err
}

// Append stores one record.
func (j *PostgresJournal) Append(kind Kind, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := newRecord(j.seq, kind, payload)
	if err != nil {
		return err
	}
	_, err = j.pool.Exec(context.Background(),
		`INSERT INTO records (id, seq, kind, payload, at) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Seq, string(rec.Kind), string(rec.Payload), rec.At,
	)
	if err != nil {
		return fmt.Errorf("eventlog: insert record: %w", err)
	}
	j.seq++
	return nil
}

// Read returns records with Seq >= since, in sequence order.
func (j *PostgresJournal) Read(ctx context.Context, since uint64) ([]Record, error) {
	rows, err := j.pool.Query(ctx,
		`SELECT id, seq, kind, payload, at FROM records WHERE seq >= $1 ORDER BY seq`, since)
	if err != nil {
		return nil, fmt.Errorf("eventlog: query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var kind string
		if err := rows.Scan(&rec.ID, &rec.Seq, &kind, &rec.Payload, &rec.At); err != nil {
			return nil, fmt.Errorf("eventlog: scan record: %w", err)
		}
		rec.Kind = Kind(kind)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (j *PostgresJournal) Close() error {
	j.pool.Close()
	return nil
}
