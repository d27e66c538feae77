package decoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/analyzer"
	"github.com/basilisk-nexus/eventnexus/catalog"
	"github.com/basilisk-nexus/eventnexus/catalog/basilisk"
	"github.com/basilisk-nexus/eventnexus/codec/scale"
	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/config"
	"github.com/basilisk-nexus/eventnexus/log"
	"github.com/basilisk-nexus/eventnexus/normalizer"
	"github.com/basilisk-nexus/eventnexus/resolver"
	"github.com/basilisk-nexus/eventnexus/schema"
	"github.com/basilisk-nexus/eventnexus/schema/schematest"
	"github.com/basilisk-nexus/eventnexus/storage"
)

type memSource struct {
	blocks map[uint64][]common.RawEvent
	first  uint64
	latest uint64
}

func (s *memSource) EventsAt(ctx context.Context, height uint64) ([]common.RawEvent, error) {
	if height > s.latest {
		return nil, storage.ErrExhausted
	}
	return s.blocks[height], nil
}

func (s *memSource) FirstHeight(ctx context.Context) (uint64, error) { return s.first, nil }

func (s *memSource) LatestHeight(ctx context.Context) (uint64, error) { return s.latest, nil }

func (s *memSource) Name() string { return "mem" }

func (s *memSource) Close() error { return nil }

type memSink struct {
	mu       sync.Mutex
	blocks   []*storage.BlockResult
	failNext int
}

func (s *memSink) WriteBlock(ctx context.Context, block *storage.BlockResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return fmt.Errorf("connection reset")
	}
	s.blocks = append(s.blocks, block)
	return nil
}

func (s *memSink) Name() string { return "mem" }

func (s *memSink) Close() error { return nil }

func (s *memSink) heights() []uint64 {
	var hs []uint64
	for _, b := range s.blocks {
		hs = append(hs, b.Block.Height)
	}
	return hs
}

type resumingSink struct {
	memSink
	next uint64
}

func (s *resumingSink) NextHeight(ctx context.Context, from uint64) (uint64, error) {
	if s.next > from {
		return s.next, nil
	}
	return from, nil
}

// rawEvent encodes a sample value of kind@tag as the event at height/index.
func rawEvent(t *testing.T, kind common.EventKind, tag string, height uint64, index uint32) common.RawEvent {
	version, err := basilisk.Catalog().Version(kind, tag)
	require.NoError(t, err)
	payload, err := schema.EncodePayload(version.Layout, schematest.Sample(version.Layout, uint8(index)+1))
	require.NoError(t, err)
	return common.RawEvent{
		Pallet:      kind.Pallet,
		Event:       kind.Name,
		Fingerprint: version.Fingerprint,
		Payload:     payload,
		Block:       common.BlockRef{Height: height, Hash: []byte{byte(height)}},
		Index:       index,
	}
}

func newTestAnalyzer(t *testing.T, opts Options, src storage.EventSource, sink storage.RecordSink) *Analyzer {
	opts.Chain = "decoder_test"
	n, err := normalizer.New(basilisk.Catalog(), normalizer.Options{
		Addresses: common.AddressCodec{Format: common.AddressFormatHex},
	})
	require.NoError(t, err)
	a, err := NewAnalyzer(opts, src, sink, resolver.New(basilisk.Catalog(), resolver.Options{}), n, log.NewDiscardLogger())
	require.NoError(t, err)
	a.retryInterval = time.Millisecond
	a.maxRetryInterval = 2 * time.Millisecond
	return a
}

func TestProcessBlock(t *testing.T) {
	src := &memSource{
		blocks: map[uint64][]common.RawEvent{
			1: {
				rawEvent(t, basilisk.TokensTransfer, "V55", 1, 0),
				rawEvent(t, basilisk.BalancesTransfer, "V16", 1, 1),
				rawEvent(t, basilisk.LBPSellExecuted, "V16", 1, 2),
			},
		},
		latest: 1,
	}
	a := newTestAnalyzer(t, Options{Workers: 2}, src, &memSink{})

	result, err := a.ProcessBlock(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, a.RunID(), result.RunID)
	require.Equal(t, []byte{1}, []byte(result.Block.Hash))
	require.Empty(t, result.Failures)
	require.Len(t, result.Records, 3)

	for i, want := range []struct {
		kind       common.EventKind
		version    string
		recordType string
	}{
		{basilisk.TokensTransfer, "V55", "transfer"},
		{basilisk.BalancesTransfer, "V16", "transfer"},
		{basilisk.LBPSellExecuted, "V16", "trade"},
	} {
		r := result.Records[i]
		require.Equal(t, fmt.Sprintf("1-%d", i), r.ID)
		require.Equal(t, uint32(i), r.Index)
		require.Equal(t, want.kind, r.Kind)
		require.Equal(t, want.version, r.Version)
		require.Equal(t, want.recordType, r.RecordType)
		require.True(t, json.Valid(r.Body))
	}

	var transfer normalizer.Transfer
	require.NoError(t, json.Unmarshal(result.Records[1].Body, &transfer))
	require.Equal(t, normalizer.NativeAsset, transfer.Asset)
}

func TestEmptyBlock(t *testing.T) {
	src := &memSource{blocks: map[uint64][]common.RawEvent{}, latest: 4}
	a := newTestAnalyzer(t, Options{}, src, &memSink{})

	result, err := a.ProcessBlock(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.Block.Height)
	require.Empty(t, result.Records)
}

func truncated(ev common.RawEvent) common.RawEvent {
	ev.Payload = ev.Payload[:len(ev.Payload)-1]
	return ev
}

func unknownVersion(ev common.RawEvent) common.RawEvent {
	ev.Fingerprint = common.Fingerprint{0xff}
	return ev
}

func failingSource(t *testing.T) *memSource {
	return &memSource{
		blocks: map[uint64][]common.RawEvent{
			1: {rawEvent(t, basilisk.TokensTransfer, "V16", 1, 0)},
			2: {
				rawEvent(t, basilisk.TokensTransfer, "V55", 2, 0),
				truncated(rawEvent(t, basilisk.LBPBuyExecuted, "V55", 2, 1)),
				unknownVersion(rawEvent(t, basilisk.TokensTransfer, "V55", 2, 2)),
			},
			3: {rawEvent(t, basilisk.BalancesTransfer, "V55", 3, 0)},
		},
		first:  1,
		latest: 3,
	}
}

func TestHaltPolicy(t *testing.T) {
	sink := &memSink{}
	a := newTestAnalyzer(t, Options{Policy: config.PolicyHalt}, failingSource(t), sink)

	err := a.Run(context.Background())
	require.ErrorIs(t, err, analyzer.ErrHalted)
	require.ErrorIs(t, err, scale.ErrTruncated)
	require.ErrorContains(t, err, "2-1")

	var halt *HaltError
	require.True(t, errors.As(err, &halt))
	require.Equal(t, ClassTruncated, halt.Class)
	require.Equal(t, basilisk.LBPBuyExecuted, halt.Kind)

	require.Equal(t, []uint64{1}, sink.heights(), "the failing block is not written")
}

func TestSkipPolicy(t *testing.T) {
	sink := &memSink{}
	a := newTestAnalyzer(t, Options{Policy: config.PolicySkip}, failingSource(t), sink)

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []uint64{1, 2, 3}, sink.heights())
	block := sink.blocks[1]
	require.Len(t, block.Records, 1)
	require.Equal(t, "2-0", block.Records[0].ID)
	require.Empty(t, block.Failures)
}

func TestQuarantinePolicy(t *testing.T) {
	sink := &memSink{}
	a := newTestAnalyzer(t, Options{Policy: config.PolicyQuarantine}, failingSource(t), sink)

	require.NoError(t, a.Run(context.Background()))
	block := sink.blocks[1]
	require.Len(t, block.Records, 1)
	require.Len(t, block.Failures, 2)

	require.Equal(t, "2-1", block.Failures[0].ID)
	require.Equal(t, ClassTruncated, block.Failures[0].Class)
	require.Contains(t, block.Failures[0].Error, "LBP.BuyExecuted@V55")
	require.Equal(t, "2-2", block.Failures[1].ID)
	require.Equal(t, ClassUnknownSchemaVersion, block.Failures[1].Class)
	require.Equal(t, common.Fingerprint{0xff}, block.Failures[1].Fingerprint)
	require.Equal(t, a.RunID(), block.Failures[1].RunID)
}

func TestUnmappedVersionNeverHalts(t *testing.T) {
	src := &memSource{
		blocks: map[uint64][]common.RawEvent{
			0: {
				rawEvent(t, basilisk.LBPPoolUpdated, "V16", 0, 0),
				rawEvent(t, basilisk.XYKPoolCreated, "V16", 0, 1),
			},
		},
		latest: 0,
	}
	sink := &memSink{}
	a := newTestAnalyzer(t, Options{Policy: config.PolicyHalt}, src, sink)

	require.NoError(t, a.Run(context.Background()))
	require.Len(t, sink.blocks, 1)
	require.Empty(t, sink.blocks[0].Records)
	require.Empty(t, sink.blocks[0].Failures)
}

func TestRange(t *testing.T) {
	src := failingSource(t)
	src.blocks[2] = nil
	sink := &memSink{}
	a := newTestAnalyzer(t, Options{From: 2, To: 3}, src, sink)
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []uint64{2, 3}, sink.heights())

	// The source's first height overrides an earlier start, and a range
	// past the source's end stops at the end.
	sink = &memSink{}
	a = newTestAnalyzer(t, Options{From: 0, To: 10}, src, sink)
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []uint64{1, 2, 3}, sink.heights())
}

func TestResume(t *testing.T) {
	src := failingSource(t)
	sink := &resumingSink{next: 3}
	a := newTestAnalyzer(t, Options{}, src, sink)
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []uint64{3}, sink.heights())
}

func TestWriteRetries(t *testing.T) {
	src := &memSource{
		blocks: map[uint64][]common.RawEvent{5: {rawEvent(t, basilisk.TokensTransfer, "V16", 5, 0)}},
		first:  5,
		latest: 5,
	}
	sink := &memSink{failNext: 2}
	a := newTestAnalyzer(t, Options{}, src, sink)
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, []uint64{5}, sink.heights())

	sink = &memSink{failNext: maxWriteAttempts}
	a = newTestAnalyzer(t, Options{}, src, sink)
	require.ErrorContains(t, a.Run(context.Background()), "connection reset")
	require.Empty(t, sink.blocks)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newTestAnalyzer(t, Options{}, failingSource(t), &memSink{})
	require.ErrorIs(t, a.Run(ctx), context.Canceled)
}

func TestNewAnalyzerValidates(t *testing.T) {
	res := resolver.New(basilisk.Catalog(), resolver.Options{})
	n, err := normalizer.New(basilisk.Catalog(), normalizer.Options{})
	require.NoError(t, err)

	for _, opts := range []Options{
		{Workers: -1},
		{Policy: "retry"},
		{From: 5, To: 4},
	} {
		_, err := NewAnalyzer(opts, &memSource{}, &memSink{}, res, n, log.NewDiscardLogger())
		require.Error(t, err, "%+v", opts)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(common.ChainBasilisk, &config.DecodeConfig{From: 3})
	require.Equal(t, config.DefaultWorkers, opts.Workers)
	require.Equal(t, config.PolicyHalt, opts.Policy)
	require.Equal(t, uint64(3), opts.From)
}

func TestClassify(t *testing.T) {
	kind := basilisk.TokensTransfer
	for _, tc := range []struct {
		err   error
		class string
	}{
		{&catalog.UnknownEventKindError{Kind: kind}, ClassUnknownEventKind},
		{&catalog.UnknownSchemaVersionError{Kind: kind}, ClassUnknownSchemaVersion},
		{fmt.Errorf("Tokens.Transfer@V16: %w", &scale.TruncatedError{Offset: 3, Need: 4, Have: 1}), ClassTruncated},
		{&schema.TrailingBytesError{Consumed: 4, Remaining: 1}, ClassTrailingBytes},
		{fmt.Errorf("amount: %w", scale.ErrNonCanonical), ClassMalformed},
		{schema.ErrUnknownVariant, ClassMalformed},
		{fmt.Errorf("field who: %w", schema.ErrShapeMismatch), ClassShapeMismatch},
		{&normalizer.NotImplementedError{Kind: kind, Version: "V16"}, ClassNotImplemented},
		{errors.New("disk full"), ClassOther},
	} {
		require.Equal(t, tc.class, Classify(tc.err), tc.err.Error())
	}
}
