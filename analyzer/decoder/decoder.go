// Package decoder implements the block-range analyzer that turns raw events
// into canonical records.
//
// Each block is fetched from the event source, its events are resolved,
// decoded and normalized in parallel, and the results are written to the
// record sink as one unit. Failed events are handled per the configured
// error policy.
package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/basilisk-nexus/eventnexus/analyzer"
	"github.com/basilisk-nexus/eventnexus/analyzer/util"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/metrics"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/resolver"
	"github.com/basilisk-nexus/eventnexus/storage"
)

const (
	analyzerPrefix = "decoder_"

	// Timeout to fetch and process one block.
	processBlockTimeout = 61 * time.Second
	// Attempts to write one block before giving up.
	maxWriteAttempts = 5
)

// Options configure the analyzer.
type Options struct {
	Chain common.ChainName
	// From and To bound the (inclusive) height range. To == 0 runs until
	// the source is exhausted.
	From    uint64
	To      uint64
	Workers int
	Policy  config.ErrorPolicy
}

// OptionsFromConfig builds the analyzer options of a decode config section.
func OptionsFromConfig(chain common.ChainName, cfg *config.DecodeConfig) Options {
	return Options{
		Chain:   chain,
		From:    cfg.From,
		To:      cfg.To,
		Workers: cfg.WorkerCount(),
		Policy:  cfg.Policy(),
	}
}

// Resumer is implemented by sinks that remember which blocks they stored.
type Resumer interface {
	// NextHeight returns the first height at or after from that still
	// needs processing.
	NextHeight(ctx context.Context, from uint64) (uint64, error)
}

// HaltError stops the analyzer under the halt policy.
type HaltError struct {
	Event string
	Kind  common.EventKind
	Class string
	Err   error
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("event %s (%s): %s: %v", e.Event, e.Kind, e.Class, e.Err)
}

func (e *HaltError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, analyzer.ErrHalted) match.
func (e *HaltError) Is(target error) bool {
	return target == analyzer.ErrHalted
}

type Analyzer struct {
	opts  Options
	runID string

	source     storage.EventSource
	sink       storage.RecordSink
	resolver   *resolver.Resolver
	normalizer *normalizer.Normalizer

	metrics metrics.DecodeMetrics
	logger  *log.Logger

	retryInterval    time.Duration
	maxRetryInterval time.Duration
}

var _ analyzer.Analyzer = (*Analyzer)(nil)

// NewAnalyzer returns a decoder over source writing into sink. Every call
// gets a fresh run id, stored with each record.
func NewAnalyzer(
	opts Options,
	source storage.EventSource,
	sink storage.RecordSink,
	res *resolver.Resolver,
	norm *normalizer.Normalizer,
	logger *log.Logger,
) (*Analyzer, error) {
	if opts.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}
	if opts.Workers == 0 {
		opts.Workers = config.DefaultWorkers
	}
	if opts.Policy == "" {
		opts.Policy = config.PolicyHalt
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.To != 0 && opts.From > opts.To {
		return nil, fmt.Errorf("malformed range from %d to %d", opts.From, opts.To)
	}

	runID := uuid.NewString()
	name := analyzerPrefix + string(opts.Chain)
	return &Analyzer{
		opts:             opts,
		runID:            runID,
		source:           source,
		sink:             sink,
		resolver:         res,
		normalizer:       norm,
		metrics:          metrics.NewDefaultDecodeMetrics(string(opts.Chain)),
		logger:           logger.WithModule(name).With("run_id", runID),
		retryInterval:    100 * time.Millisecond,
		maxRetryInterval: 6 * time.Second,
	}, nil
}

func (a *Analyzer) Name() string {
	return analyzerPrefix + string(a.opts.Chain)
}

// RunID identifies this analyzer's run in stored records.
func (a *Analyzer) RunID() string {
	return a.runID
}

// Start implements analyzer.Analyzer.
func (a *Analyzer) Start(ctx context.Context) {
	if err := a.Run(ctx); err != nil {
		a.logger.Error("decoder stopped", "err", err)
	}
}

// startHeight applies the source's first height and the sink's progress to
// the configured start.
func (a *Analyzer) startHeight(ctx context.Context) (uint64, error) {
	from := a.opts.From
	first, err := a.source.FirstHeight(ctx)
	switch {
	case err == nil:
		if first > from {
			from = first
		}
	case errors.Is(err, storage.ErrExhausted):
	default:
		return 0, fmt.Errorf("first source height: %w", err)
	}

	if r, ok := a.sink.(Resumer); ok {
		next, err := r.NextHeight(ctx, from)
		if err != nil {
			return 0, err
		}
		if next != from {
			a.logger.Info("resuming after processed blocks", "from", from, "resume_at", next)
		}
		from = next
	}
	return from, nil
}

// Run processes the configured range. It returns nil once the range (or the
// source) is done, ctx.Err() on cancellation, and a *HaltError when an event
// fails under the halt policy.
func (a *Analyzer) Run(ctx context.Context) error {
	from, err := a.startHeight(ctx)
	if err != nil {
		return err
	}
	backoff, err := util.NewBackoff(a.retryInterval, a.maxRetryInterval)
	if err != nil {
		return fmt.Errorf("configuring write backoff: %w", err)
	}

	a.logger.Info("starting decoder",
		"from", from,
		"to", a.opts.To,
		"workers", a.opts.Workers,
		"on_error", a.opts.Policy,
		"source", a.source.Name(),
		"sink", a.sink.Name(),
	)

	var blocks, records, failures int
	for height := from; a.opts.To == 0 || height <= a.opts.To; height++ {
		if err := ctx.Err(); err != nil {
			a.logger.Warn("shutting down decoder", "reason", err, "height", height)
			return err
		}

		bCtx, cancel := context.WithTimeout(ctx, processBlockTimeout)
		result, err := a.ProcessBlock(bCtx, height)
		cancel()
		switch {
		case errors.Is(err, storage.ErrExhausted):
			if a.opts.To != 0 {
				a.logger.Warn("source exhausted before the end of the range", "height", height, "to", a.opts.To)
			}
			a.logger.Info("finished decoding", "blocks", blocks, "records", records, "failures", failures)
			return nil
		case err != nil:
			return fmt.Errorf("block %d: %w", height, err)
		}

		if err := a.write(ctx, backoff, result); err != nil {
			return err
		}
		a.metrics.ProcessedHeight().Set(float64(height))
		blocks++
		records += len(result.Records)
		failures += len(result.Failures)
		a.logger.Debug("processed block", "height", height, "records", len(result.Records), "failures", len(result.Failures))
	}

	a.logger.Info("finished processing all blocks in the configured range",
		"from", from, "to", a.opts.To,
		"blocks", blocks, "records", records, "failures", failures,
	)
	return nil
}

func (a *Analyzer) write(ctx context.Context, backoff *util.Backoff, result *storage.BlockResult) error {
	for attempt := 1; ; attempt++ {
		err := a.sink.WriteBlock(ctx, result)
		if err == nil {
			backoff.Success()
			return nil
		}
		if attempt == maxWriteAttempts || ctx.Err() != nil {
			return fmt.Errorf("writing block %d: %w", result.Block.Height, err)
		}
		a.logger.Warn("failed to write block, retrying",
			"height", result.Block.Height,
			"attempt", attempt,
			"err", err,
		)
		if err := backoff.Wait(ctx); err != nil {
			return err
		}
		backoff.Failure()
	}
}

type outcome struct {
	record   normalizer.Record
	version  string // empty if the event did not resolve
	trailing int
	err      error
}

// processEvent resolves, decodes and normalizes one event.
func (a *Analyzer) processEvent(ev *common.RawEvent) (o outcome) {
	timer := a.metrics.Latency(ev.Kind().String())
	defer timer.ObserveDuration()

	version, err := a.resolver.Resolve(ev.Kind(), ev.Fingerprint)
	if err != nil {
		o.err = err
		return o
	}
	o.version = version.Tag
	decoded, err := a.resolver.DecodeAs(ev, version)
	if err != nil {
		o.err = err
		return o
	}
	o.trailing = decoded.TrailingBytes()
	o.record, o.err = a.normalizer.Normalize(decoded)
	return o
}

// ProcessBlock turns the events at height into records and failures. It
// does not write them.
func (a *Analyzer) ProcessBlock(ctx context.Context, height uint64) (*storage.BlockResult, error) {
	events, err := a.source.EventsAt(ctx, height)
	if err != nil {
		return nil, err
	}

	outcomes := make([]outcome, len(events))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.opts.Workers)
	for i := range events {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = a.processEvent(&events[i])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &storage.BlockResult{
		Block: common.BlockRef{Height: height},
		RunID: a.runID,
	}
	if len(events) > 0 {
		result.Block = events[0].Block
	}
	for i := range events {
		if err := a.collect(result, &events[i], &outcomes[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// collect applies the error policy to one outcome, in event order.
func (a *Analyzer) collect(result *storage.BlockResult, ev *common.RawEvent, o *outcome) error {
	kind := ev.Kind()
	if o.err == nil {
		body, err := json.Marshal(o.record)
		if err != nil {
			return fmt.Errorf("event %s: encoding %s record: %w", ev.ID(), o.record.RecordType(), err)
		}
		if o.trailing > 0 {
			a.logger.Warn("payload longer than its schema version",
				"height", ev.Block.Height,
				"index", ev.Index,
				"kind", kind,
				"version", o.version,
				"trailing_bytes", o.trailing,
			)
		}
		result.Records = append(result.Records, storage.DecodedRecord{
			ID:         ev.ID(),
			Block:      ev.Block,
			Index:      ev.Index,
			Kind:       kind,
			Version:    o.version,
			RecordType: o.record.RecordType(),
			Body:       body,
			RunID:      a.runID,
		})
		a.metrics.Events(kind.String(), o.version, metrics.OutcomeNormalized).Inc()
		return nil
	}

	class := Classify(o.err)
	a.metrics.Events(kind.String(), o.version, class).Inc()
	logger := a.logger.With(
		"height", ev.Block.Height,
		"index", ev.Index,
		"kind", kind,
		"version", o.version,
		"class", class,
	)
	if corrupt(class) {
		logger.Error("payload does not match its schema version",
			"fingerprint", ev.Fingerprint,
			"payload_len", len(ev.Payload),
			"err", o.err,
		)
	}

	switch {
	case a.opts.Policy == config.PolicyQuarantine:
		logger.Info("quarantining event", "err", o.err)
		result.Failures = append(result.Failures, storage.DecodeFailure{
			ID:          ev.ID(),
			Block:       ev.Block,
			Index:       ev.Index,
			Kind:        kind,
			Fingerprint: ev.Fingerprint,
			Payload:     ev.Payload,
			Class:       class,
			Error:       o.err.Error(),
			RunID:       a.runID,
		})
	case class == ClassNotImplemented:
		// Unmapped historical versions are expected; they never halt.
		logger.Debug("skipping event of an unmapped schema version")
	case a.opts.Policy == config.PolicySkip:
		logger.Warn("skipping event", "err", o.err)
	default:
		return &HaltError{Event: ev.ID(), Kind: kind, Class: class, Err: o.err}
	}
	return nil
}
