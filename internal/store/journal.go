package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	opPut    = "put"
	opDelete = "delete"
)

// Record is one journal line. Values serialize as base64 through
// encoding/json's []byte handling.
type Record struct {
	Op       string    `json:"op"`
	Key      string    `json:"key"`
	Value    []byte    `json:"value,omitempty"`
	Revision int64     `json:"revision"`
	Time     time.Time `json:"time"`
}

// Journal is an append-only JSON-lines mutation log. Append is safe for
// concurrent use; Sync flushes appended records to stable storage.
type Journal struct {
	mu   sync.Mutex
	path string
	file *os.File
	enc  *json.Encoder
}

// Open opens (creating if necessary) the journal at path for appending.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}
	return &Journal{path: path, file: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one record to the journal. The record is buffered by the
// operating system until the next Sync.
func (j *Journal) Append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("appending journal record: %w", err)
	}
	return nil
}

// Sync flushes appended records to stable storage.
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Sync()
}

// Replay reads the journal from the beginning and invokes fn for every
// record, in append order. It is meant to run once, before the journal
// receives new appends.
func (j *Journal) Replay(fn func(Record)) error {
	f, err := os.Open(j.path)
	if err != nil {
		return fmt.Errorf("opening journal %s for replay: %w", j.path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return fmt.Errorf("decoding journal record at line %d: %w", line, err)
		}
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}
	return nil
}

// Close syncs and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.file.Sync(); err != nil {
		_ = j.file.Close()
		return fmt.Errorf("syncing journal on close: %w", err)
	}
	return j.file.Close()
}
