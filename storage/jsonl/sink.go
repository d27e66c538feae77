package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/basilisk-nexus/eventnexus/storage"
)

const sinkName = "jsonl"

type jsonlWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newJSONLWriter(path string) (*jsonlWriter, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return &jsonlWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (w *jsonlWriter) Write(value interface{}) error {
	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if _, err := w.writer.Write(line); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return w.writer.WriteByte('\n')
}

func (w *jsonlWriter) Flush() error {
	return w.writer.Flush()
}

func (w *jsonlWriter) Close() error {
	if w == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Sink appends decoded records to one file and failures to another. Both
// files are flushed after every block.
type Sink struct {
	mu         sync.Mutex
	records    *jsonlWriter
	quarantine *jsonlWriter // nil when failures are not persisted
}

var _ storage.RecordSink = (*Sink)(nil)

// OpenSink opens (appending) the records file and, if quarantinePath is not
// empty, the quarantine file.
func OpenSink(recordsPath, quarantinePath string) (*Sink, error) {
	records, err := newJSONLWriter(recordsPath)
	if err != nil {
		return nil, fmt.Errorf("records: %w", err)
	}
	s := &Sink{records: records}
	if quarantinePath != "" {
		if s.quarantine, err = newJSONLWriter(quarantinePath); err != nil {
			_ = records.Close()
			return nil, fmt.Errorf("quarantine: %w", err)
		}
	}
	return s, nil
}

// WriteBlock implements storage.RecordSink.
func (s *Sink) WriteBlock(ctx context.Context, block *storage.BlockResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range block.Records {
		if err := s.records.Write(&block.Records[i]); err != nil {
			return fmt.Errorf("record %s: %w", block.Records[i].ID, err)
		}
	}
	if len(block.Failures) > 0 {
		if s.quarantine == nil {
			return fmt.Errorf("block %d: %d failures but no quarantine file configured", block.Block.Height, len(block.Failures))
		}
		for i := range block.Failures {
			if err := s.quarantine.Write(&block.Failures[i]); err != nil {
				return fmt.Errorf("failure %s: %w", block.Failures[i].ID, err)
			}
		}
		if err := s.quarantine.Flush(); err != nil {
			return err
		}
	}
	return s.records.Flush()
}

func (s *Sink) Name() string {
	return sinkName
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.records.Close()
	if qerr := s.quarantine.Close(); err == nil {
		err = qerr
	}
	return err
}
