package artifact

import (
	"context"
	"io"
	"strconv"
)

// Store is the chunk-addressed large-object contract backing model artifact
// upload and download (spec §4.3). Implementations may be local filesystem
// or remote object storage; callers depend only on this interface.
//
//go:generate mockgen --destination=../../gen/mock/artifact/store_mock.go --package=mock . Store
type Store interface {
	// Reserve ensures a dedicated location exists for modelID. Idempotent.
	Reserve(ctx context.Context, modelID string) error

	// PutChunk writes chunkIndex (1-based) of modelID's artifact. Out-of-order
	// and retried writes are legal; a retried index replaces its prior bytes
	// atomically via write-then-rename.
	PutChunk(ctx context.Context, modelID string, chunkIndex int, r io.Reader) error

	// Commit concatenates chunks 1..totalChunks, in order, into the final
	// artifact, then removes the chunk parts. It fails, leaving chunk files
	// intact, if any chunk in the range is missing.
	Commit(ctx context.Context, modelID string, totalChunks int) error

	// PrepareDownload ensures the requested representation (compressed or
	// not) exists, deriving it from the stored form if necessary.
	PrepareDownload(ctx context.Context, modelID string, compressed bool) error

	// Stream opens the committed artifact for sequential reading from byte
	// offset 0. The caller must Close the returned reader.
	Stream(ctx context.Context, modelID string, compressed bool) (io.ReadCloser, error)

	// Delete removes every artifact and per-model data path for modelID.
	Delete(ctx context.Context, modelID string) error
}

// ErrChunkMissing is returned by Commit when chunks 1..totalChunks are not
// all present.
type ErrChunkMissing struct {
	ModelID string
	Index   int
}

func (e ErrChunkMissing) Error() string {
	return "artifact: chunk " + strconv.Itoa(e.Index) + " missing for model " + e.ModelID
}

// ErrNotReserved is returned by PutChunk when Reserve was never called for
// modelID.
type ErrNotReserved struct {
	ModelID string
}

func (e ErrNotReserved) Error() string {
	return "artifact: model " + e.ModelID + " was never reserved"
}

// ErrArtifactNotFound is returned by Stream/PrepareDownload when no
// committed artifact exists for modelID.
type ErrArtifactNotFound struct {
	ModelID string
}

func (e ErrArtifactNotFound) Error() string {
	return "artifact: no committed artifact for model " + e.ModelID
}
