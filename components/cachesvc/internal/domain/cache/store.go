// Package cache declares the semantic response cache's storage contracts:
// the indexed store a refresh job consolidates into and live reads are
// served from, and the insertion log a write acknowledges against
// immediately. Implementations live under internal/adapters.
package cache

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
)

// IndexedStore is the queryable, generation-versioned cache a model's
// entries live in. Suggest/Lookup read the current generation directly;
// Invalidate advances it synchronously so the effect is visible to the very
// next read, per §8 invariant 9. Only the refresh job writes a new
// generation's entries (consolidating the insertion log); Invalidate is the
// one exception allowed to mutate the live generation outside a refresh,
// since it must take effect before the next lookup rather than on the next
// refresh tick.
//
//go:generate mockgen --destination=../../gen/mock/cache/store_mock.go --package=mock . IndexedStore
type IndexedStore interface {
	// Entries returns every entry currently indexed for model, at the
	// generation live reads are served from.
	Entries(ctx context.Context, modelID string) ([]mmodel.CacheEntry, error)

	// Generation returns the model's current generation number and the
	// invalidation watermark (the time of its most recent Invalidate call,
	// zero if never invalidated).
	Generation(ctx context.Context, modelID string) (gen int64, invalidatedAt int64, err error)

	// SwapGeneration atomically publishes entries as the new current
	// generation for model, replacing whatever was previously live. This is
	// the "rename the copy over the original" step: once it returns, every
	// subsequent Entries/Generation call observes the new set.
	SwapGeneration(ctx context.Context, modelID string, newGen int64, entries []mmodel.CacheEntry) error

	// Invalidate clears model's live entries immediately and records the
	// invalidation watermark so the refresh job can discard any buffered
	// insertion that predates it.
	Invalidate(ctx context.Context, modelID string) error
}

// InsertionLogRecord is one buffered cache-insert awaiting consolidation.
type InsertionLogRecord struct {
	ModelID    string  `json:"modelId"`
	Query      string  `json:"query"`
	Response   string  `json:"response"`
	ChunkID    *string `json:"chunkId,omitempty"`
	InsertedAt int64   `json:"insertedAt"` // unix nanos
}

// InsertionLog is the append-only, per-instance log cache inserts are
// buffered to before the refresh job folds them into the IndexedStore.
//
//go:generate mockgen --destination=../../gen/mock/cache/insertionlog_mock.go --package=mock . InsertionLog
type InsertionLog interface {
	// Append durably records rec before returning, so a crash after Insert
	// acknowledges never silently drops it.
	Append(ctx context.Context, rec InsertionLogRecord) error

	// Drain returns every record appended since the last successful Drain
	// (tracked by a pointer file the caller need not manage) and advances
	// the pointer past them. Records are returned in append order.
	Drain(ctx context.Context) ([]InsertionLogRecord, error)
}
