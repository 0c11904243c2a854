package cachesvc

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/domain/cache"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/similarity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	entries map[string][]mmodel.CacheEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]mmodel.CacheEntry)}
}

func (s *fakeStore) Entries(_ context.Context, modelID string) ([]mmodel.CacheEntry, error) {
	return s.entries[modelID], nil
}

func (s *fakeStore) Generation(_ context.Context, modelID string) (int64, int64, error) {
	return 0, 0, nil
}

func (s *fakeStore) SwapGeneration(_ context.Context, modelID string, _ int64, entries []mmodel.CacheEntry) error {
	s.entries[modelID] = entries
	return nil
}

func (s *fakeStore) Invalidate(_ context.Context, modelID string) error {
	delete(s.entries, modelID)
	return nil
}

type fakeLog struct {
	records []cache.InsertionLogRecord
}

func (l *fakeLog) Append(_ context.Context, rec cache.InsertionLogRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeLog) Drain(_ context.Context) ([]cache.InsertionLogRecord, error) {
	return nil, nil
}

func TestLookup_BelowThresholdReturnsNotFound(t *testing.T) {
	store := newFakeStore()
	store.entries["m1"] = []mmodel.CacheEntry{{ID: "1", ModelID: "m1", Query: "best pizza recipe", Response: "dough"}}
	uc := NewUseCase(store, &fakeLog{}, similarity.FusionWeight{}, 0)

	_, err := uc.Lookup(context.Background(), "m1", "capital of france")

	require.Error(t, err)
}

func TestLookup_AboveThresholdReturnsEntry(t *testing.T) {
	store := newFakeStore()
	store.entries["m1"] = []mmodel.CacheEntry{{ID: "1", ModelID: "m1", Query: "capital of france", Response: "Paris"}}
	uc := NewUseCase(store, &fakeLog{}, similarity.FusionWeight{}, 0)

	got, err := uc.Lookup(context.Background(), "m1", "capital of france")

	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Entry.Response)
}

func TestLookup_ScoreEqualToThresholdReturnsNotFound(t *testing.T) {
	store := newFakeStore()
	store.entries["m1"] = []mmodel.CacheEntry{{ID: "1", ModelID: "m1", Query: "capital of france", Response: "Paris"}}
	uc := NewUseCase(store, &fakeLog{}, similarity.FusionWeight{}, 1.0)

	_, err := uc.Lookup(context.Background(), "m1", "capital of france")

	require.Error(t, err)
}

func TestSuggest_ReturnsAtMostFiveRankedByScore(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 8; i++ {
		store.entries["m1"] = append(store.entries["m1"], mmodel.CacheEntry{
			ID:      string(rune('a' + i)),
			ModelID: "m1",
			Query:   "capital of france",
			Response: "Paris",
		})
	}
	uc := NewUseCase(store, &fakeLog{}, similarity.FusionWeight{}, 0)

	got, err := uc.Suggest(context.Background(), "m1", "capital of france")

	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), SuggestLimit)

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestInsert_AppendsToLogWithoutTouchingStore(t *testing.T) {
	store := newFakeStore()
	log := &fakeLog{}
	uc := NewUseCase(store, log, similarity.FusionWeight{}, 0)

	err := uc.Insert(context.Background(), "m1", &mmodel.CacheInsertInput{Query: "q", Response: "r"})

	require.NoError(t, err)
	require.Len(t, log.records, 1)
	assert.Empty(t, store.entries["m1"], "insert only buffers to the log; the refresh job publishes it")
}

func TestInvalidate_ClearsLiveEntriesImmediately(t *testing.T) {
	store := newFakeStore()
	store.entries["m1"] = []mmodel.CacheEntry{{ID: "1", ModelID: "m1", Query: "capital of france", Response: "Paris"}}
	uc := NewUseCase(store, &fakeLog{}, similarity.FusionWeight{}, 0)

	require.NoError(t, uc.Invalidate(context.Background(), "m1"))

	_, err := uc.Lookup(context.Background(), "m1", "capital of france")
	assert.Error(t, err, "no lookup after invalidate should return the pre-invalidation entry")
}

func TestNewUseCase_ZeroValuesFallBackToDefaults(t *testing.T) {
	uc := NewUseCase(newFakeStore(), &fakeLog{}, similarity.FusionWeight{}, 0)

	assert.Equal(t, similarity.DefaultFusionWeight, uc.FusionWeight)
	assert.Equal(t, similarity.DefaultThreshold, uc.Threshold)
}
