// Package redis implements the semantic response cache's IndexedStore
// against Redis, using key-namespace versioning as the atomic-swap
// equivalent of the original on-disk "copy aside, replay, rename" sequence:
// each model's live generation is a small integer pointer, and publishing a
// consolidated generation is one atomic SET, so concurrent readers never
// observe a half-built index.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/redis/go-redis/v9"
)

// Store is an IndexedStore backed by a single Redis client shared across
// every model this cache instance serves.
type Store struct {
	client *redis.Client
}

// NewStore returns a Store using client for every key.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func genKey(modelID string) string {
	return "cache:gen:" + modelID
}

func watermarkKey(modelID string) string {
	return "cache:watermark:" + modelID
}

func entriesKey(modelID string, gen int64) string {
	return fmt.Sprintf("cache:entries:%s:%d", modelID, gen)
}

// Entries returns every entry at the model's current live generation.
func (s *Store) Entries(ctx context.Context, modelID string) ([]mmodel.CacheEntry, error) {
	gen, _, err := s.Generation(ctx, modelID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.HGetAll(ctx, entriesKey(modelID, gen)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]mmodel.CacheEntry, 0, len(raw))

	for _, v := range raw {
		var e mmodel.CacheEntry
		if err := json.Unmarshal([]byte(v), &e); err == nil {
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// Generation returns the model's current generation (0 if the model has
// never been refreshed) and its invalidation watermark in unix nanos (0 if
// never invalidated).
func (s *Store) Generation(ctx context.Context, modelID string) (int64, int64, error) {
	gen, err := s.getInt64(ctx, genKey(modelID))
	if err != nil {
		return 0, 0, err
	}

	watermark, err := s.getInt64(ctx, watermarkKey(modelID))
	if err != nil {
		return 0, 0, err
	}

	return gen, watermark, nil
}

func (s *Store) getInt64(ctx context.Context, key string) (int64, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, nil
	}

	return n, nil
}

// SwapGeneration writes entries under newGen and then atomically advances
// the model's generation pointer to it, the way a rename replaces the live
// store with the freshly-consolidated copy. The previous generation's hash
// is removed best-effort after the swap; a failure to remove it leaks a
// key, never the other way around.
func (s *Store) SwapGeneration(ctx context.Context, modelID string, newGen int64, entries []mmodel.CacheEntry) error {
	oldGen, _, err := s.Generation(ctx, modelID)
	if err != nil {
		return err
	}

	key := entriesKey(modelID, newGen)

	if len(entries) > 0 {
		fields := make(map[string]any, len(entries))

		for _, e := range entries {
			blob, err := json.Marshal(e)
			if err != nil {
				return err
			}

			fields[e.ID] = blob
		}

		if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
			return err
		}
	}

	if err := s.client.Set(ctx, genKey(modelID), newGen, 0).Err(); err != nil {
		return err
	}

	if oldGen != newGen {
		s.client.Del(ctx, entriesKey(modelID, oldGen))
	}

	return nil
}

// Invalidate drops model's live entries immediately (advancing the
// generation to an empty one) and records the invalidation watermark, so
// the refresh job can discard any log record that predates it, per §8
// invariant 9: no lookup after invalidate returns an entry inserted before
// it, buffered or not.
func (s *Store) Invalidate(ctx context.Context, modelID string) error {
	oldGen, _, err := s.Generation(ctx, modelID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, genKey(modelID), oldGen+1, 0)
	pipe.Set(ctx, watermarkKey(modelID), time.Now().UnixNano(), 0)
	pipe.Del(ctx, entriesKey(modelID, oldGen))

	_, err = pipe.Exec(ctx)

	return err
}
