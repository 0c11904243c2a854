package local

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutChunk_WithoutReserveFails(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = s.PutChunk(context.Background(), "model-1", 1, bytes.NewReader([]byte("a")))

	var notReserved artifact.ErrNotReserved
	assert.ErrorAs(t, err, &notReserved)
}

func TestCommit_MissingChunkFailsAndLeavesPartsIntact(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))
	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("first"))))
	// chunk 2 never written

	err = s.Commit(ctx, "model-1", 2)

	var missing artifact.ErrChunkMissing
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2, missing.Index)

	// Retry is still possible: chunk 1 must remain on disk.
	require.NoError(t, s.PutChunk(ctx, "model-1", 2, bytes.NewReader([]byte("second"))))
	require.NoError(t, s.Commit(ctx, "model-1", 2))
}

func TestCommitThenStream_AtomicAndInOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))

	// Before commit, no artifact is visible.
	_, err = s.Stream(ctx, "model-1", false)
	var notFound artifact.ErrArtifactNotFound
	require.ErrorAs(t, err, &notFound)

	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("hello "))))
	require.NoError(t, s.PutChunk(ctx, "model-1", 2, bytes.NewReader([]byte("world"))))
	require.NoError(t, s.Commit(ctx, "model-1", 2))

	r, err := s.Stream(ctx, "model-1", false)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestPutChunk_RetriedIndexReplacesBytes(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))
	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("stale"))))
	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("fresh"))))
	require.NoError(t, s.Commit(ctx, "model-1", 1))

	r, err := s.Stream(ctx, "model-1", false)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestPrepareDownload_BuildsZipFromStoredForm(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))
	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("artifact-bytes"))))
	require.NoError(t, s.Commit(ctx, "model-1", 1))

	require.NoError(t, s.PrepareDownload(ctx, "model-1", true))

	r, err := s.Stream(ctx, "model-1", true)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)

	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()

	content, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(content))
}

func TestPrepareDownload_WithoutCommittedArtifactFails(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))

	err = s.PrepareDownload(ctx, "model-1", false)

	var notFound artifact.ErrArtifactNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestDelete_RemovesArtifactDirectory(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reserve(ctx, "model-1"))
	require.NoError(t, s.PutChunk(ctx, "model-1", 1, bytes.NewReader([]byte("x"))))
	require.NoError(t, s.Commit(ctx, "model-1", 1))

	require.NoError(t, s.Delete(ctx, "model-1"))

	_, err = s.Stream(ctx, "model-1", false)
	var notFound artifact.ErrArtifactNotFound
	assert.ErrorAs(t, err, &notFound)
}
