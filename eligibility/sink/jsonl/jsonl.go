// Package jsonl appends outcomes to a JSON Lines file.
package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/screwyprof/eligibility/eligibility"
)

// Sentinel errors for sink operations
var (
	ErrOpenFailed   = errors.New("result file open failed")
	ErrEncodeFailed = errors.New("outcome encoding failed")
	ErrWriteFailed  = errors.New("result file write failed")
	ErrCloseFailed  = errors.New("result file close failed")
)

// Sink implements eligibility.Sink on top of an append-only file.
// Every outcome becomes one complete line written with a single call.
type Sink struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens path for appending, creating it if needed. Existing lines are never touched.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	return &Sink{file: f}, nil
}

// Append writes the outcome as one line
func (s *Sink) Append(_ context.Context, outcome eligibility.Outcome) error {
	line, err := encode(outcome)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Close flushes the file to disk and closes it
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return fmt.Errorf("%w: %w", ErrCloseFailed, err)
	}
	return nil
}

// encode keeps non-ASCII text and HTML characters as they are
func encode(outcome eligibility.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encode terminates the value with a newline
	if err := enc.Encode(outcome); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncodeFailed, err)
	}
	return buf.Bytes(), nil
}
