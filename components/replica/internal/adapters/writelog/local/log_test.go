package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_AssignsIncreasingSequenceNumbers(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.ndjson")

	l, err := NewLog(path)
	require.NoError(t, err)

	r1, err := l.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpInsert})
	require.NoError(t, err)
	r2, err := l.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpDelete})
	require.NoError(t, err)

	assert.Equal(t, int64(1), r1.Seq)
	assert.Equal(t, int64(2), r2.Seq)
}

func TestReplay_ReturnsRecordsInAppendOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.ndjson")

	l, err := NewLog(path)
	require.NoError(t, err)

	ops := []mmodel.WriteOp{mmodel.WriteOpInsert, mmodel.WriteOpUpvote, mmodel.WriteOpDelete}
	for _, op := range ops {
		_, err := l.Append(ctx, mmodel.WriteLogRecord{Op: op})
		require.NoError(t, err)
	}

	records, err := l.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, op := range ops {
		assert.Equal(t, op, records[i].Op)
		assert.Equal(t, int64(i+1), records[i].Seq)
	}
}

func TestReplay_DiscardsTruncatedTrailingRecord(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.ndjson")

	l, err := NewLog(path)
	require.NoError(t, err)

	_, err = l.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpInsert})
	require.NoError(t, err)

	// Simulate a crash mid-write: append a partial, unterminated JSON line.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"op":"delete","deploymentId":`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records, err := l.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1, "the truncated trailing line must be discarded, not returned or treated as corruption")
	assert.Equal(t, mmodel.WriteOpInsert, records[0].Op)
}

func TestReplay_ReplayingSamePrefixTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.ndjson")

	l, err := NewLog(path)
	require.NoError(t, err)

	_, err = l.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpInsert})
	require.NoError(t, err)

	first, err := l.Replay(ctx)
	require.NoError(t, err)
	second, err := l.Replay(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNewLog_RecoversNextSeqAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.ndjson")

	l1, err := NewLog(path)
	require.NoError(t, err)
	_, err = l1.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpInsert})
	require.NoError(t, err)
	_, err = l1.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpDelete})
	require.NoError(t, err)

	l2, err := NewLog(path)
	require.NoError(t, err)

	rec, err := l2.Append(ctx, mmodel.WriteLogRecord{Op: mmodel.WriteOpUpvote})
	require.NoError(t, err)

	assert.Equal(t, int64(3), rec.Seq)
}
