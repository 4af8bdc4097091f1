package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteJournal persists records in a SQLite database. The driver is
// cgo-free, so the journal works anywhere the binary runs.
type SQLiteJournal struct {
	mu  sync.Mutex
	db  *sql.DB
	seq uint64
}

// NewSQLiteJournal opens (or creates) a journal database at path. Use
// ":memory:" for an ephemeral journal.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open database: %w", err)
	}

	j := &SQLiteJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: migrate: %w", err)
	}

	var max sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(seq) FROM records`).Scan(&max); err != nil {
		db.Close()
		return nil, fmt.Errorf("eventlog: read sequence: %w", err)
	}
	if max.Valid {
		j.seq = uint64(max.Int64) + 1
	}
	return j, nil
}

func (j *SQLiteJournal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		payload TEXT NOT NULL,
		at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_kind ON records(kind);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Append stores one record.
func (j *SQLiteJournal) Append(kind Kind, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := newRecord(j.seq, kind, payload)
	if err != nil {
		return err
	}
	_, err = j.db.Exec(
		`INSERT INTO records (id, seq, kind, payload, at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Seq, string(rec.Kind), string(rec.Payload), rec.At,
	)
	if err != nil {
		return fmt.Errorf("eventlog: insert record: %w", err)
	}
	j.seq++
	return nil
}

// Read returns records with Seq >= since, in sequence order.
func (j *SQLiteJournal) Read(ctx context.Context, since uint64) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, seq, kind, payload, at FROM records WHERE seq >= ? ORDER BY seq`, since)
	if err != nil {
		return nil, fmt.Errorf("eventlog: query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			kind    string
			payload string
			at      time.Time
		)
		if err := rows.Scan(&rec.ID, &rec.Seq, &kind, &payload, &at); err != nil {
			return nil, fmt.Errorf("eventlog: scan record: %w", err)
		}
		rec.Kind = Kind(kind)
		rec.Payload = []byte(payload)
		rec.At = at
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *SQLiteJournal) Close() error { return j.db.Close() }
