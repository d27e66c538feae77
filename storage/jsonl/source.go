// Package jsonl implements an event source and a record sink on JSON-lines files.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/storage"
)

const (
	sourceName = "jsonl"

	maxLineSize = 16 * 1024 * 1024
)

// Source serves raw events from a JSON-lines dump, one RawEvent per line,
// ordered by block height. The whole dump is indexed in memory on open.
type Source struct {
	path    string
	blocks  map[uint64][]common.RawEvent
	first   uint64
	latest  uint64
	isEmpty bool
}

var _ storage.EventSource = (*Source)(nil)

// OpenSource reads and indexes the dump at path.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event dump: %w", err)
	}
	defer f.Close()

	s := &Source{
		path:    path,
		blocks:  make(map[uint64][]common.RawEvent),
		isEmpty: true,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev common.RawEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		height := ev.Block.Height
		if !s.isEmpty && height < s.latest {
			return nil, fmt.Errorf("%s:%d: height %d after %d, dump must be ordered by height", path, lineNo, height, s.latest)
		}
		if s.isEmpty {
			s.first = height
			s.isEmpty = false
		}
		s.latest = height
		s.blocks[height] = append(s.blocks[height], ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return s, nil
}

// EventsAt implements storage.EventSource.
func (s *Source) EventsAt(ctx context.Context, height uint64) ([]common.RawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.isEmpty || height > s.latest {
		return nil, storage.ErrExhausted
	}
	events := s.blocks[height]
	out := make([]common.RawEvent, len(events))
	copy(out, events)
	return out, nil
}

// LatestHeight implements storage.EventSource.
func (s *Source) LatestHeight(ctx context.Context) (uint64, error) {
	if s.isEmpty {
		return 0, storage.ErrExhausted
	}
	return s.latest, nil
}

// FirstHeight implements storage.EventSource.
func (s *Source) FirstHeight(ctx context.Context) (uint64, error) {
	if s.isEmpty {
		return 0, storage.ErrExhausted
	}
	return s.first, nil
}

func (s *Source) Name() string {
	return sourceName
}

func (s *Source) Close() error {
	return nil
}
