// Package cachesvc implements the semantic response cache's business logic:
// suggest, lookup, insert and invalidate, plus the short-lived cache-insert
// token an LLM-dispatch caller presents to insert without a session token.
// Grounded on original_source/thirdai_platform/llm_cache_job/main.py, with
// the write path and token issuance following the same shape as
// components/controlplane's upload-token issuance (reserve, then mint a
// token scoped to what was reserved).
package cachesvc

import (
	"context"
	"sort"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/domain/cache"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/similarity"
	"github.com/google/uuid"
)

// CacheInsertTokenTTL is the lifetime of a cache-insert token: single-model
// scoped, expiring within a few minutes per §4.6's invariant.
const CacheInsertTokenTTL = 5 * time.Minute

// SuggestLimit is the maximum number of completions suggest returns.
const SuggestLimit = 5

// rerankPoolSize is how many top semantic matches lookup reranks by token
// overlap before applying FusionWeight, per the Open Question resolution.
const rerankPoolSize = 5

// UseCase wires the indexed store and insertion log into the cache's public
// operations.
type UseCase struct {
	Store        cache.IndexedStore
	Log          cache.InsertionLog
	FusionWeight similarity.FusionWeight
	Threshold    float64
}

// NewUseCase returns a UseCase with the default fusion weight and threshold
// applied when the zero value is passed for either.
func NewUseCase(store cache.IndexedStore, log cache.InsertionLog, weight similarity.FusionWeight, threshold float64) *UseCase {
	if weight.SemanticWeight == 0 && weight.OverlapWeight == 0 {
		weight = similarity.DefaultFusionWeight
	}

	if threshold == 0 {
		threshold = similarity.DefaultThreshold
	}

	return &UseCase{Store: store, Log: log, FusionWeight: weight, Threshold: threshold}
}

// Suggest returns up to SuggestLimit best-effort completions for query
// against model's live entries, ranked by fused score with no threshold
// applied: suggest is a UI aid, not a cache hit.
func (uc *UseCase) Suggest(ctx context.Context, modelID, query string) ([]mmodel.CacheQueryResult, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "cachesvc.suggest")
	defer span.End()

	ranked, err := uc.rank(ctx, modelID, query)
	if err != nil {
		return nil, err
	}

	if len(ranked) > SuggestLimit {
		ranked = ranked[:SuggestLimit]
	}

	return ranked, nil
}

// Lookup returns the single best match for query against model's live
// entries if its fused score clears Threshold, otherwise mmodel.ErrCacheEntryNotFound
// wrapped as a not-found business error: lookup never returns an entry below
// threshold, per §8 invariant.
func (uc *UseCase) Lookup(ctx context.Context, modelID, query string) (*mmodel.CacheQueryResult, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "cachesvc.lookup")
	defer span.End()

	ranked, err := uc.rank(ctx, modelID, query)
	if err != nil {
		return nil, err
	}

	if len(ranked) == 0 || ranked[0].Score <= uc.Threshold {
		return nil, common.ValidateBusinessError(cn.ErrCacheEntryNotFound, "CacheEntry")
	}

	return &ranked[0], nil
}

// rank scores every live entry for modelID semantically against query,
// keeps the rerankPoolSize best, and returns those sorted by descending
// fused score.
func (uc *UseCase) rank(ctx context.Context, modelID, query string) ([]mmodel.CacheQueryResult, error) {
	entries, err := uc.Store.Entries(ctx, modelID)
	if err != nil {
		return nil, err
	}

	semantic := make([]float64, len(entries))
	for i, e := range entries {
		semantic[i] = similarity.Score(query, e.Query, similarity.FusionWeight{SemanticWeight: 1})
	}

	pool := similarity.TopK(semantic, rerankPoolSize)

	results := make([]mmodel.CacheQueryResult, len(pool))
	for i, idx := range pool {
		results[i] = mmodel.CacheQueryResult{
			Entry: entries[idx],
			Score: similarity.Score(query, entries[idx].Query, uc.FusionWeight),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

// Insert appends a buffered entry to the per-instance insertion log. The
// refresh job, not Insert, is what makes it visible to Suggest/Lookup.
func (uc *UseCase) Insert(ctx context.Context, modelID string, in *mmodel.CacheInsertInput) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "cachesvc.insert")
	defer span.End()

	return uc.Log.Append(ctx, cache.InsertionLogRecord{
		ModelID:    modelID,
		Query:      in.Query,
		Response:   in.Response,
		ChunkID:    in.ChunkID,
		InsertedAt: time.Now().UnixNano(),
	})
}

// Invalidate drops model's live entries immediately, synchronously bumping
// the generation rather than waiting for the next refresh tick, so the very
// next lookup already observes the model as empty.
func (uc *UseCase) Invalidate(ctx context.Context, modelID string) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "cachesvc.invalidate")
	defer span.End()

	return uc.Store.Invalidate(ctx, modelID)
}

// IssueInsertToken mints a cache-insert token scoped to modelID, the token
// an LLM-dispatch caller presents to Insert without holding a session token.
func IssueInsertToken(jwtSecret []byte, modelID uuid.UUID) (string, error) {
	return httpcommon.IssueToken(jwtSecret, httpcommon.TokenKindCache, time.Now().Add(CacheInsertTokenTTL), func(c *httpcommon.Claims) {
		c.Scope = modelID.String()
	})
}
