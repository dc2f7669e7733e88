package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// FileSink appends events as JSON lines to a file, optionally compressed.
// Compressed output is written as a gzip member per sink lifetime, so a log
// file accumulated over several runs remains a valid multi-member gzip stream.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	w    io.Writer
	gz   *gzip.Writer
	now  func() time.Time
}

// NewFileSink opens (or creates) the file at path for appending.
func NewFileSink(path string, compress bool) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	s := &FileSink{file: f, w: f, now: time.Now}
	if compress {
		s.gz = gzip.NewWriter(f)
		s.w = s.gz
	}
	return s, nil
}

// Emit implements Sink.
func (s *FileSink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		return fmt.Errorf("file sink is closed")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := s.w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// Close flushes any buffered compressed data and closes the file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gzip writer: %w", err))
		}
		s.gz = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		s.file = nil
	}
	s.w = nil

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

var _ Sink = (*FileSink)(nil)
