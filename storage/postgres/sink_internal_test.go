package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basilisk-nexus/eventnexus/common"
	"github.com/basilisk-nexus/eventnexus/storage"
)

func TestQueueBlockMissingPayload(t *testing.T) {
	sink := NewSink(nil, common.ChainBasilisk, nil)
	block := &storage.BlockResult{
		Block: common.BlockRef{Height: 7},
		RunID: "run",
		Failures: []storage.DecodeFailure{{
			ID:    "7-0",
			Block: common.BlockRef{Height: 7},
			Kind:  common.EventKind{Pallet: "Tokens", Name: "Transfer"},
			Class: "truncated",
			Error: "payload missing",
			RunID: "run",
		}},
	}

	var batch storage.QueryBatch
	sink.queueBlock(&batch, block)
	require.Equal(t, 2, batch.Len())

	failure := batch.Queries()[0]
	require.Equal(t, upsertDecodeFailure, failure.Cmd)
	payload, ok := failure.Args[6].([]byte)
	require.True(t, ok)
	require.NotNil(t, payload)
	require.Empty(t, payload)
}

func TestNonNilBytes(t *testing.T) {
	require.Equal(t, []byte{}, nonNilBytes(nil))
	require.Equal(t, []byte{1, 2}, nonNilBytes([]byte{1, 2}))
}
