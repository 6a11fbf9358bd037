// Package report provides the append-only good/bad row sinks that
// mirror the input schema for operator remediation.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Sink appends rows to a CSV file. The file is created lazily on the
// first append so a clean run leaves no empty report behind; the header
// is written only when the file is new or empty.
type Sink struct {
	path   string
	header []string

	file   *os.File
	writer *csv.Writer
}

// NewSink prepares a sink writing to path with the given header.
func NewSink(path string, header []string) *Sink {
	return &Sink{path: path, header: header}
}

// Append writes one row, opening the file on first use.
func (s *Sink) Append(values []string) error {
	if s.writer == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	if err := s.writer.Write(values); err != nil {
		return fmt.Errorf("failed to append to %s: %w", s.path, err)
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes and closes the underlying file, if one was opened.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	s.writer.Flush()
	err := s.writer.Error()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	s.writer = nil
	return err
}

func (s *Sink) open() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open report %s: %w", s.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat report %s: %w", s.path, err)
	}

	s.file = f
	s.writer = csv.NewWriter(f)

	if info.Size() == 0 && len(s.header) > 0 {
		if err := s.writer.Write(s.header); err != nil {
			return fmt.Errorf("failed to write report header: %w", err)
		}
		s.writer.Flush()
		return s.writer.Error()
	}
	return nil
}
