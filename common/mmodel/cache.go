package mmodel

import "time"

// WriteOp is the kind of a WriteLogRecord entry. The replica write
// coordinator replays these in order to rebuild a deployed replica's state.
type WriteOp string

const (
	WriteOpInsert           WriteOp = "insert"
	WriteOpDelete           WriteOp = "delete"
	WriteOpUpvote           WriteOp = "upvote"
	WriteOpAssociate        WriteOp = "associate"
	WriteOpImplicitFeedback WriteOp = "implicit-feedback"
	WriteOpSave             WriteOp = "save"
)

// WriteLogRecord is one append-only entry in a deployment's write log. The
// log is the source of truth the single writer replays to rebuild state
// after a restart or a writer handoff.
type WriteLogRecord struct {
	Seq          int64     `json:"seq"`
	DeploymentID string    `json:"deploymentId"`
	Op           WriteOp   `json:"op"`
	Timestamp    time.Time `json:"timestamp"`
	Caller       string    `json:"caller"`
	Payload      []byte    `json:"payload"`
}

// CacheEntry is a single cached (query, response) pair attached to a model's
// semantic response cache. ChunkID ties the entry back to the source
// document chunk it was derived from, if any.
type CacheEntry struct {
	ID         string    `json:"id"`
	ModelID    string    `json:"modelId"`
	Query      string    `json:"query"`
	ChunkID    *string   `json:"chunkId"`
	Response   string    `json:"response"`
	InsertedAt time.Time `json:"insertedAt"`
}

// CacheInsertInput is the payload accepted by the cache-insert endpoint,
// authenticated with a cache_insert-kind token scoped to a single model.
type CacheInsertInput struct {
	Query    string  `json:"query" validate:"required"`
	Response string  `json:"response" validate:"required"`
	ChunkID  *string `json:"chunkId"`
}

// CacheQueryInput is the payload accepted by the cache-lookup endpoint. A
// lookup fuses Jaccard token-overlap and hashed bag-of-words cosine
// similarity against every entry for the model; see the cache service's
// scoring for the exact weights.
type CacheQueryInput struct {
	Query string `json:"query" validate:"required"`
}

// CacheQueryResult pairs a CacheEntry with the fused similarity score that
// ranked it, so callers can apply their own threshold.
type CacheQueryResult struct {
	Entry CacheEntry `json:"entry"`
	Score float64    `json:"score"`
}

// RefreshJobState is the lifecycle of a cache-consolidation refresh job.
type RefreshJobState string

const (
	RefreshJobPending RefreshJobState = "pending"
	RefreshJobRunning RefreshJobState = "running"
	RefreshJobDone    RefreshJobState = "done"
	RefreshJobFailed  RefreshJobState = "failed"
)

// RefreshJob tracks one run of the append-log consolidation job that folds
// a model's write log into its queryable cache table.
type RefreshJob struct {
	ID          string          `json:"id"`
	ModelID     string          `json:"modelId"`
	State       RefreshJobState `json:"state"`
	EntriesRead int             `json:"entriesRead"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  *time.Time      `json:"finishedAt"`
}
