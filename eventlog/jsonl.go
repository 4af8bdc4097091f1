package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// JSONLJournal appends records as JSON Lines to a file. Reads re-scan the
// file, so the format doubles as a plain-text export consumable by external
// tools.
type JSONLJournal struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
	seq  uint64
}

// NewJSONLJournal opens (or creates) a JSONL journal at path. When the file
// already holds records, new sequence numbers continue after the last one.
func NewJSONLJournal(path string) (*JSONLJournal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open journal: %w", err)
	}

	j := &JSONLJournal{path: path, f: f, w: bufio.NewWriter(f)}

	records, err := readJSONL(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if n := len(records); n > 0 {
		j.seq = records[n-1].Seq + 1
	}
	return j, nil
}

// Append writes one record as a JSON line and flushes it.
func (j *JSONLJournal) Append(kind Kind, payload any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rec, err := newRecord(j.seq, kind, payload)
	if err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("eventlog: marshal record: %w", err)
	}
	if _, err := j.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("eventlog: write record: %w", err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("eventlog: flush record: %w", err)
	}
	j.seq++
	return nil
}

// Read re-scans the file and returns records with Seq >= since.
func (j *JSONLJournal) Read(_ context.Context, since uint64) ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		return nil, fmt.Errorf("eventlog: open journal: %w", err)
	}
	defer f.Close()

	records, err := readJSONL(f)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range records {
		if rec.Seq >= since {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Close flushes and closes the underlying file.
func (j *JSONLJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.w.Flush(); err != nil {
		return err
	}
	return j.f.Close()
}

func readJSONL(r io.Reader) ([]Record, error) {
	var out []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(text, &rec); err != nil {
			return nil, fmt.Errorf("eventlog: line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("eventlog: scan journal: %w", err)
	}
	return out, nil
}
