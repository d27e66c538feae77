package postgres

import (
	"context"
	"fmt"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/metrics"
	"github.com/basilisk-nexus/eventnexus/storage"
)

// Sink stores decoded records, quarantined failures and block progress.
// Each block is written in one transaction.
type Sink struct {
	client  *Client
	chain   common.ChainName
	metrics *metrics.StorageMetrics
}

var _ storage.RecordSink = (*Sink)(nil)

// NewSink writes the blocks of chain through client. m may be nil.
func NewSink(client *Client, chain common.ChainName, m *metrics.StorageMetrics) *Sink {
	return &Sink{
		client:  client,
		chain:   chain,
		metrics: m,
	}
}

// nonNilBytes maps a missing payload to an empty one; pgx sends nil as NULL.
func nonNilBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func (s *Sink) queueBlock(batch *storage.QueryBatch, block *storage.BlockResult) {
	chain := string(s.chain)
	for i := range block.Records {
		r := &block.Records[i]
		batch.Queue(upsertDecodedEvent,
			chain,
			r.Block.Height,
			r.Index,
			[]byte(r.Block.Hash),
			r.Kind.String(),
			r.Version,
			r.RecordType,
			string(r.Body),
			r.RunID,
		)
		batch.Queue(deleteResolvedFailure, chain, r.Block.Height, r.Index)
	}
	for i := range block.Failures {
		f := &block.Failures[i]
		batch.Queue(upsertDecodeFailure,
			chain,
			f.Block.Height,
			f.Index,
			[]byte(f.Block.Hash),
			f.Kind.String(),
			f.Fingerprint[:],
			nonNilBytes(f.Payload),
			f.Class,
			f.Error,
			f.RunID,
		)
	}
	batch.Queue(upsertProcessedBlock,
		chain,
		block.Block.Height,
		block.RunID,
		len(block.Records),
		len(block.Failures),
	)
}

// WriteBlock implements storage.RecordSink.
func (s *Sink) WriteBlock(ctx context.Context, block *storage.BlockResult) error {
	if s.metrics != nil {
		timer := s.metrics.StorageLatencies(moduleName, "write_block")
		defer timer.ObserveDuration()
	}

	batch := &storage.QueryBatch{}
	s.queueBlock(batch, block)
	err := s.client.SendBatch(ctx, batch)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		s.metrics.StorageOperations(moduleName, "write_block", status).Inc()
	}
	if err != nil {
		return fmt.Errorf("block %d: %w", block.Block.Height, err)
	}
	return nil
}

// NextHeight returns the first height at or after from that has not been
// processed yet, so an interrupted run can resume.
func (s *Sink) NextHeight(ctx context.Context, from uint64) (uint64, error) {
	var next int64
	if err := s.client.QueryRow(ctx, firstUnprocessedHeight, string(s.chain), int64(from)).Scan(&next); err != nil {
		return 0, fmt.Errorf("next unprocessed height: %w", err)
	}
	return uint64(next), nil
}

// Counts returns the number of stored records and quarantined failures.
func (s *Sink) Counts(ctx context.Context) (records uint64, failures uint64, err error) {
	if err = s.client.QueryRow(ctx, countDecodedEvents, string(s.chain)).Scan(&records); err != nil {
		return 0, 0, err
	}
	if err = s.client.QueryRow(ctx, countDecodeFailures, string(s.chain)).Scan(&failures); err != nil {
		return 0, 0, err
	}
	return records, failures, nil
}

func (s *Sink) Name() string {
	return moduleName
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}
