package replica

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
)

// WriteLog is the durable, append-only, strictly-ordered log a deployment's
// mutating operations are persisted to before being acknowledged in
// production mode (spec §4.5). Append must write the full record before
// returning; Replay must detect and discard a partial trailing record left
// by a crash mid-write.
//
//go:generate mockgen --destination=../../gen/mock/replica/writelog_mock.go --package=mock . WriteLog
type WriteLog interface {
	// Append writes rec as the next record, assigning it the next sequence
	// number, and returns the record as written.
	Append(ctx context.Context, rec mmodel.WriteLogRecord) (mmodel.WriteLogRecord, error)

	// Replay returns every well-formed record in log order. A truncated
	// trailing line (partial write interrupted by a crash) is discarded,
	// not returned and not an error.
	Replay(ctx context.Context) ([]mmodel.WriteLogRecord, error)
}

// Lease enforces the single-writer invariant over a deployment's write log:
// at most one rebuild process may hold the lease at a time. A stale lease
// (holder crashed without releasing) is only reclaimable once its age
// exceeds twice the lease period, per §4.5.
//
//go:generate mockgen --destination=../../gen/mock/replica/lease_mock.go --package=mock . Lease
type Lease interface {
	// Acquire claims the lease for holder if it is free or stale. It
	// reports whether the claim succeeded.
	Acquire(ctx context.Context, holder string) (bool, error)

	// Renew extends an already-held lease. It reports false if holder no
	// longer holds it (e.g. it was reclaimed as stale).
	Renew(ctx context.Context, holder string) (bool, error)

	// Release gives up the lease if holder currently holds it.
	Release(ctx context.Context, holder string) error

	// Reachable reports whether a writer lease can currently be evaluated
	// at all (e.g. the lease's backing storage is reachable). The
	// write-coordinator rejects production-mode writes with 503 when this
	// is false, per the §9 Open Question resolution: no silent buffering
	// past a restart with no reachable lease.
	Reachable(ctx context.Context) bool
}
