// Package storage defines the event source and record sink interfaces of
// the decoding pipeline.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jackc/pgx/v5"

	"github.com/basilisk-nexus/eventnexus/common"
)

// ErrExhausted is returned by an EventSource for heights past its last block.
var ErrExhausted = fmt.Errorf("event source exhausted")

// EventSource provides the raw events of each block.
type EventSource interface {
	// EventsAt returns the events of the block at height in emission order.
	// A block without events yields an empty slice. Heights past the end
	// of the source return ErrExhausted.
	EventsAt(ctx context.Context, height uint64) ([]common.RawEvent, error)

	// FirstHeight returns the lowest height the source has events for.
	FirstHeight(ctx context.Context) (uint64, error)

	// LatestHeight returns the highest height the source has events for.
	LatestHeight(ctx context.Context) (uint64, error)

	// Name returns the name of the source.
	Name() string

	// Close releases the resources held by the source.
	Close() error
}

// RecordSink persists the output of the pipeline.
type RecordSink interface {
	// WriteBlock atomically stores the records and failures of one block.
	WriteBlock(ctx context.Context, block *BlockResult) error

	// Name returns the name of the sink.
	Name() string

	// Close flushes and releases the sink.
	Close() error
}

// BlockResult is everything the pipeline produced for one block.
type BlockResult struct {
	Block    common.BlockRef
	RunID    string
	Records  []DecodedRecord
	Failures []DecodeFailure
}

// DecodedRecord is one canonical record together with the coordinates of the
// event it came from.
type DecodedRecord struct {
	ID         string           `json:"id"`
	Block      common.BlockRef  `json:"block"`
	Index      uint32           `json:"index"`
	Kind       common.EventKind `json:"kind"`
	Version    string           `json:"version"`
	RecordType string           `json:"record_type"`
	Body       json.RawMessage  `json:"body"`
	RunID      string           `json:"run_id"`
}

// DecodeFailure is a quarantined event: the raw input plus the classified error.
type DecodeFailure struct {
	ID          string             `json:"id"`
	Block       common.BlockRef    `json:"block"`
	Index       uint32             `json:"index"`
	Kind        common.EventKind   `json:"kind"`
	Fingerprint common.Fingerprint `json:"fingerprint"`
	Payload     hexutil.Bytes      `json:"payload"`
	Class       string             `json:"class"`
	Error       string             `json:"error"`
	RunID       string             `json:"run_id"`
}

// QueuedQuery is one statement of a QueryBatch.
type QueuedQuery struct {
	Cmd  string
	Args []interface{}
}

func (q QueuedQuery) String() string {
	return fmt.Sprintf("%s %v", q.Cmd, q.Args)
}

// QueryBatch is a batch of statements executed atomically. It keeps the
// queued statements so failures can be reported per statement.
type QueryBatch struct {
	items []*QueuedQuery
}

// Queue adds a statement to the batch.
func (b *QueryBatch) Queue(cmd string, args ...interface{}) {
	b.items = append(b.items, &QueuedQuery{Cmd: cmd, Args: args})
}

// Extend appends the statements of another batch.
func (b *QueryBatch) Extend(qb *QueryBatch) {
	b.items = append(b.items, qb.items...)
}

func (b *QueryBatch) Len() int {
	return len(b.items)
}

func (b *QueryBatch) Queries() []*QueuedQuery {
	return b.items
}

// AsPgxBatch converts the batch for pgx's pipelined execution.
func (b *QueryBatch) AsPgxBatch() pgx.Batch {
	pgxBatch := pgx.Batch{}
	for _, q := range b.items {
		pgxBatch.Queue(q.Cmd, q.Args...)
	}
	return pgxBatch
}
