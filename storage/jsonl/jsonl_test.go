package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/storage"
)

var fp = "0x" + strings.Repeat("ab", 32)

func writeDump(t *testing.T, lines ...string) string {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func event(height, index int) string {
	b, _ := json.Marshal(map[string]interface{}{
		"pallet":      "Tokens",
		"event":       "Transfer",
		"fingerprint": fp,
		"payload":     "0x0102",
		"block":       map[string]interface{}{"height": height},
		"index":       index,
	})
	return string(b)
}

func TestSourceGroupsByHeight(t *testing.T) {
	ctx := context.Background()
	path := writeDump(t, event(10, 0), event(10, 1), "", event(12, 0))

	src, err := OpenSource(path)
	require.NoError(t, err)
	defer src.Close()

	first, err := src.FirstHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(10), first)
	latest, err := src.LatestHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(12), latest)

	evs, err := src.EventsAt(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)
	require.Equal(t, uint32(1), evs[1].Index)
	require.Equal(t, common.EventKind{Pallet: "Tokens", Name: "Transfer"}, evs[0].Kind())
	require.Equal(t, []byte{1, 2}, []byte(evs[0].Payload))
	require.Equal(t, common.MustParseFingerprint(fp), evs[0].Fingerprint)

	evs, err = src.EventsAt(ctx, 11)
	require.NoError(t, err)
	require.Empty(t, evs)

	_, err = src.EventsAt(ctx, 13)
	require.ErrorIs(t, err, storage.ErrExhausted)
}

func TestSourceRejectsUnorderedDump(t *testing.T) {
	_, err := OpenSource(writeDump(t, event(12, 0), event(10, 0)))
	require.ErrorContains(t, err, "ordered by height")
}

func TestSourceRejectsBadLine(t *testing.T) {
	_, err := OpenSource(writeDump(t, event(1, 0), `{"pallet": 3}`))
	require.ErrorContains(t, err, "events.jsonl:2")
}

func TestEmptySource(t *testing.T) {
	src, err := OpenSource(writeDump(t))
	require.NoError(t, err)
	_, err = src.LatestHeight(context.Background())
	require.ErrorIs(t, err, storage.ErrExhausted)
}

func readLines(t *testing.T, path string) []string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestSinkWritesRecordsAndFailures(t *testing.T) {
	dir := t.TempDir()
	recordsPath := filepath.Join(dir, "out", "records.jsonl")
	quarantinePath := filepath.Join(dir, "out", "failures.jsonl")

	sink, err := OpenSink(recordsPath, quarantinePath)
	require.NoError(t, err)

	block := &storage.BlockResult{
		Block: common.BlockRef{Height: 7},
		RunID: "run",
		Records: []storage.DecodedRecord{{
			ID:         "7-0",
			Block:      common.BlockRef{Height: 7},
			Kind:       common.EventKind{Pallet: "Tokens", Name: "Transfer"},
			Version:    "V55",
			RecordType: "transfer",
			Body:       json.RawMessage(`{"amount":"5"}`),
			RunID:      "run",
		}},
		Failures: []storage.DecodeFailure{{
			ID:      "7-1",
			Index:   1,
			Kind:    common.EventKind{Pallet: "LBP", Name: "PoolUpdated"},
			Payload: []byte{0xde, 0xad},
			Class:   "truncated",
			Error:   "boom",
			RunID:   "run",
		}},
	}
	require.NoError(t, sink.WriteBlock(context.Background(), block))
	require.NoError(t, sink.Close())

	records := readLines(t, recordsPath)
	require.Len(t, records, 1)
	require.Contains(t, records[0], `"kind":"Tokens.Transfer"`)
	require.Contains(t, records[0], `"body":{"amount":"5"}`)

	failures := readLines(t, quarantinePath)
	require.Len(t, failures, 1)
	require.Contains(t, failures[0], `"payload":"0xdead"`)
	require.Contains(t, failures[0], `"class":"truncated"`)
}

func TestSinkWithoutQuarantineRejectsFailures(t *testing.T) {
	sink, err := OpenSink(filepath.Join(t.TempDir(), "records.jsonl"), "")
	require.NoError(t, err)
	defer sink.Close()

	err = sink.WriteBlock(context.Background(), &storage.BlockResult{
		Block:    common.BlockRef{Height: 3},
		Failures: []storage.DecodeFailure{{ID: "3-0"}},
	})
	require.ErrorContains(t, err, "no quarantine file")
}
