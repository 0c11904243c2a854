// Package coordinator implements the deployed-replica write coordinator of
// spec §4.5: development-mode synchronous writes against an in-memory
// snapshot, or production-mode durable append-only logging acknowledged
// 202 and replayed later by each replica's rebuild worker. The worker does
// not take the writer lease; the coordinator consults the lease only to
// check that it is reachable.
package coordinator

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	catalogdomain "github.com/thirdway-labs/modelctl/common/domain/catalog"
	replicadom "github.com/thirdway-labs/modelctl/components/replica/internal/domain/replica"
	"github.com/google/uuid"
)

// Mode selects synchronous, in-memory application (single-replica
// deployments) versus durable log-then-replay (multi-replica deployments).
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Coordinator serializes mutating operations on a deployment's snapshot
// behind the rules of §4.5.
type Coordinator struct {
	DeploymentID string
	Mode         Mode

	Snapshot *replicadom.Snapshot
	Log      replicadom.WriteLog
	Lease    replicadom.Lease
	ModelRepo catalogdomain.ModelRepository

	// appliedThroughSeq is the highest log sequence number already applied
	// to Snapshot in this process's lifetime, so Replay can be invoked
	// repeatedly (e.g. on every rebuild tick) without double-applying.
	appliedThroughSeq int64
}

// InsertInput is the accepted-document payload for an insert write.
type InsertInput struct {
	SourceID string
	Text     string
	Labels   map[string]string
}

// acceptWrite appends rec to the durable log in production mode (returning
// 202-equivalent accepted=false meaning "not yet applied"), or applies apply
// synchronously in development mode (accepted=true meaning "already
// visible to reads").
func (c *Coordinator) acceptWrite(ctx context.Context, op mmodel.WriteOp, caller string, payload []byte, apply func()) (accepted bool, err error) {
	if c.Mode == ModeProduction {
		if c.Lease != nil && !c.Lease.Reachable(ctx) {
			return false, common.UnprocessableOperationError{
				EntityType: "Deployment",
				Title:      "Write Coordinator Unavailable",
				Code:       cn.ErrNoWriterLeaseReachable.Error(),
				Message:    "No writer lease is reachable; refusing to buffer this write past a possible restart.",
			}
		}

		rec := mmodel.WriteLogRecord{
			DeploymentID: c.DeploymentID,
			Op:           op,
			Timestamp:    time.Now().UTC(),
			Caller:       caller,
			Payload:      payload,
		}

		if _, err := c.Log.Append(ctx, rec); err != nil {
			return false, err
		}

		return false, nil
	}

	apply()

	return true, nil
}

// Insert requires write permission (checked by the caller before invoking
// this), appends/applies an insert record, and reuses the chunked-upload
// protocol of §4.3 upstream of this call for large document bodies.
func (c *Coordinator) Insert(ctx context.Context, caller string, in InsertInput, payload []byte) (bool, error) {
	return c.acceptWrite(ctx, mmodel.WriteOpInsert, caller, payload, func() {
		c.Snapshot.Insert(replicadom.Document{SourceID: in.SourceID, Text: in.Text, Labels: in.Labels})
	})
}

// Delete requires write permission; deleting an already-absent id is
// accepted (idempotent replay).
func (c *Coordinator) Delete(ctx context.Context, caller string, sourceIDs []string, payload []byte) (bool, error) {
	return c.acceptWrite(ctx, mmodel.WriteOpDelete, caller, payload, func() {
		c.Snapshot.Delete(sourceIDs)
	})
}

// Upvote requires read permission and increments each target's counter
// once per call. It is not idempotent: the query is not recorded, so a
// repeated upvote of the same (query, target) pair increments again.
func (c *Coordinator) Upvote(ctx context.Context, caller string, sourceIDs []string, payload []byte) (bool, error) {
	return c.acceptWrite(ctx, mmodel.WriteOpUpvote, caller, payload, func() {
		for _, id := range sourceIDs {
			c.Snapshot.Upvote(id)
		}
	})
}

// Associate requires read permission and teaches a (textA, textB) pairing.
func (c *Coordinator) Associate(ctx context.Context, caller string, pairs [][2]string, payload []byte) (bool, error) {
	return c.acceptWrite(ctx, mmodel.WriteOpAssociate, caller, payload, func() {
		for _, p := range pairs {
			c.Snapshot.Associate(p[0], p[1])
		}
	})
}

// SaveInput is the payload for the save-under-new-name operation.
type SaveInput struct {
	Override  bool
	ModelName string
}

// Save creates a new Model row parented to the current source model
// (create-as-new, requiring a unique name for the owner) or, when Override
// is set, designates the existing model as the target — the owner-only
// in-place path. The catalog row is created synchronously regardless of
// Mode: it reserves the id/name pair before any bytes are persisted, the
// same invariant §1 calls out for uploads.
func (c *Coordinator) Save(ctx context.Context, ownerID uuid.UUID, sourceModelID uuid.UUID, in SaveInput) (*mmodel.Model, error) {
	if in.Override {
		model, err := c.ModelRepo.Find(ctx, sourceModelID)
		if err != nil {
			return nil, err
		}

		if model.OwnerUserID != ownerID.String() {
			return nil, common.ForbiddenError{
				Code:    cn.ErrActionNotPermitted.Error(),
				Title:   "Forbidden",
				Message: "Only the model's owner may save over it in place.",
			}
		}

		return model, nil
	}

	source, err := c.ModelRepo.Find(ctx, sourceModelID)
	if err != nil {
		return nil, err
	}

	baseID := source.ID

	newModel := &mmodel.Model{
		Name:              in.ModelName,
		OwnerUserID:       ownerID.String(),
		TeamID:            source.TeamID,
		Access:            source.Access,
		DefaultPermission: source.DefaultPermission,
		Kind:              source.Kind,
		SubKind:           source.SubKind,
		TrainState:        mmodel.StateComplete,
		ParentModelID:     &baseID,
	}

	return c.ModelRepo.Create(ctx, newModel)
}

// Replay applies every not-yet-applied record from the durable log to the
// in-memory snapshot, in log order, picking up after appliedThroughSeq so
// repeated calls (e.g. on every rebuild tick) only apply new records.
func (c *Coordinator) Replay(ctx context.Context) error {
	records, err := c.Log.Replay(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.Seq <= c.appliedThroughSeq {
			continue
		}

		ApplyRecord(c.Snapshot, rec)

		c.appliedThroughSeq = rec.Seq
	}

	return nil
}
