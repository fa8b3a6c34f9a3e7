// Package audit records every guardian decision — configuration changes,
// wipes, and refusals — in an append-only JSONL file with SHA-256 hash
// chaining. Each entry's prev_hash is the hash of the previous line, so
// any tampering breaks the chain at the altered entry.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Genesis is the prev_hash of the first entry in a new log.
const Genesis = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// timeFormat keeps millisecond precision and sorts lexicographically.
const timeFormat = "2006-01-02T15:04:05.000Z"

// Log is an append-only audit log handle. Safe for concurrent use.
type Log struct {
	path string
	file *os.File
	tail string
	mu   sync.Mutex
}

// Open opens (or creates) an audit log for appending. An existing file is
// scanned to its last line so the chain continues where it left off.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	tail, err := chainTail(path)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Log{path: path, file: file, tail: tail}, nil
}

// chainTail returns the hash of the last line of an existing log, or
// Genesis for a missing/empty file.
func chainTail(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return Genesis, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("audit: read existing log: %w", err)
	}
	defer f.Close()

	var last []byte
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		last = append(last[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("audit: scan existing log: %w", err)
	}
	if len(last) == 0 {
		return Genesis, nil
	}
	return hashLine(last), nil
}

// Record appends an entry, filling Timestamp (if empty) and PrevHash,
// and syncs the file before returning.
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(timeFormat)
	}
	e.PrevHash = l.tail

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.tail = hashLine(line)
	return nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// hashLine returns "sha256:<hex>" of one JSON line.
func hashLine(line []byte) string {
	sum := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(sum[:])
}
