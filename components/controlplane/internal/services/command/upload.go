package command

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/google/uuid"
)

// UploadTokenMinTTL and the per-megabyte scaling term bound an upload
// token's lifetime between 15 minutes and UploadTokenMaxTTL.
const (
	UploadTokenMinTTL = 15 * time.Minute
	UploadTokenMaxTTL = 24 * time.Hour
)

// uploadTokenTTL scales with declared size: 15 min plus one second per
// megabyte, capped at 24 h.
func uploadTokenTTL(sizeBytes int64) time.Duration {
	scaled := UploadTokenMinTTL + time.Duration(math.Ceil(float64(sizeBytes)/1e6))*time.Second
	if scaled > UploadTokenMaxTTL {
		return UploadTokenMaxTTL
	}

	return scaled
}

// IssueUploadToken reserves the (owner, name) pair as a not-started Model
// row and mints an upload token scoped to it. Reservation and token
// issuance are one step because a second call for the same name must see
// the row already exists and fail with a conflict (spec §4.1).
func (uc *UseCase) IssueUploadToken(ctx context.Context, ownerID uuid.UUID, modelName string, sizeBytes int64, jwtSecret []byte) (string, *mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.issue_upload_token")
	defer span.End()

	model := &mmodel.Model{
		Name:              modelName,
		OwnerUserID:       ownerID.String(),
		Access:            mmodel.AccessPrivate,
		DefaultPermission: mmodel.PermissionRead,
		TrainState:        mmodel.StateNotStarted,
		SizeBytes:         sizeBytes,
	}

	created, err := uc.ModelRepo.Create(ctx, model)
	if err != nil {
		return "", nil, err
	}

	if err := uc.ArtifactStore.Reserve(ctx, created.ID); err != nil {
		return "", nil, err
	}

	token, err := httpcommon.IssueToken(jwtSecret, httpcommon.TokenKindUpload, time.Now().Add(uploadTokenTTL(sizeBytes)), func(c *httpcommon.Claims) {
		c.UserID = ownerID.String()
		c.ModelName = modelName
		c.Scope = created.ID
	})
	if err != nil {
		return "", nil, err
	}

	return token, created, nil
}

// UploadChunk writes a single chunk of the artifact named by an upload
// token's scope.
func (uc *UseCase) UploadChunk(ctx context.Context, claims *httpcommon.Claims, chunkNumber int, r io.Reader) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.upload_chunk")
	defer span.End()

	return uc.ArtifactStore.PutChunk(ctx, claims.Scope, chunkNumber, r)
}

// UploadCommit concatenates every uploaded chunk into the final artifact and
// transitions the reserved Model row to complete, the only point at which
// the model becomes visible to listings.
func (uc *UseCase) UploadCommit(ctx context.Context, claims *httpcommon.Claims, totalChunks int, in *mmodel.UploadCommitInput) (*mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.upload_commit")
	defer span.End()

	modelID, err := uuid.Parse(claims.Scope)
	if err != nil {
		return nil, common.UnauthorizedError{
			Code:    cn.ErrInvalidUploadToken.Error(),
			Title:   "Invalid Upload Token",
			Message: "This upload token does not reference a valid model.",
		}
	}

	if err := uc.ArtifactStore.Commit(ctx, claims.Scope, totalChunks); err != nil {
		return nil, err
	}

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if in.AccessLevel == mmodel.AccessProtected && in.TeamID == nil {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Missing Team",
			Message: "A protected-access model must specify a team.",
		}
	}

	model.Kind = in.Kind
	model.SubKind = in.SubKind
	model.Access = in.AccessLevel
	model.TeamID = in.TeamID
	model.TrainState = mmodel.StateComplete

	now := time.Now().UTC()
	model.PublishedAt = &now

	return uc.ModelRepo.Update(ctx, modelID, model)
}
