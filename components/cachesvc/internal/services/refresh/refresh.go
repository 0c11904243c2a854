// Package refresh implements the cache's periodic consolidation job: drain
// the buffered insertion log, fold new records onto the live entries for
// each model they target, and atomically publish the result as the next
// generation. Grounded on
// original_source/thirdai_platform/llm_cache_job/refresh_llm_cache.py's
// "copy aside, replay, rename" loop, expressed here against Redis's
// generation-pointer swap instead of a file rename.
package refresh

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/domain/cache"
)

// Job runs one cache-consolidation pass across every model touched by the
// drained insertion log.
type Job struct {
	Store cache.IndexedStore
	Log   cache.InsertionLog
}

// NewJob wires a Job against store and log.
func NewJob(store cache.IndexedStore, log cache.InsertionLog) *Job {
	return &Job{Store: store, Log: log}
}

// Run drains the insertion log once and folds each record onto its model's
// live entries, publishing one new generation per model touched. Records
// that predate a model's invalidation watermark are dropped rather than
// resurrecting entries the client has already been told are gone.
func (j *Job) Run(ctx context.Context) (int, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "refresh.run")
	defer span.End()

	records, err := j.Log.Drain(ctx)
	if err != nil {
		return 0, err
	}

	byModel := make(map[string][]cache.InsertionLogRecord)
	for _, r := range records {
		byModel[r.ModelID] = append(byModel[r.ModelID], r)
	}

	for modelID, recs := range byModel {
		if err := j.consolidate(ctx, modelID, recs); err != nil {
			return 0, err
		}
	}

	return len(records), nil
}

func (j *Job) consolidate(ctx context.Context, modelID string, recs []cache.InsertionLogRecord) error {
	gen, watermark, err := j.Store.Generation(ctx, modelID)
	if err != nil {
		return err
	}

	entries, err := j.Store.Entries(ctx, modelID)
	if err != nil {
		return err
	}

	for _, r := range recs {
		if r.InsertedAt <= watermark {
			continue
		}

		chunkID := r.ChunkID

		entries = append(entries, mmodel.CacheEntry{
			ID:         uuid.New().String(),
			ModelID:    r.ModelID,
			Query:      r.Query,
			ChunkID:    chunkID,
			Response:   r.Response,
			InsertedAt: time.Unix(0, r.InsertedAt).UTC(),
		})
	}

	return j.Store.SwapGeneration(ctx, modelID, gen+1, entries)
}
