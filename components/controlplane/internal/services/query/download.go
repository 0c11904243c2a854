package query

import (
	"context"
	"io"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// DownloadModel resolves caller's permission on modelID, then prepares and
// opens the requested artifact representation. A caller without at least
// read permission sees a not-found error, never a forbidden one (spec §4.2's
// public-principal visibility rule extended to authenticated callers, so
// private-model existence isn't leaked).
func (uc *UseCase) DownloadModel(ctx context.Context, caller permission.Principal, modelID uuid.UUID, compressed bool) (io.ReadCloser, *mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.download_model")
	defer span.End()

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, nil, err
	}

	explicit, err := uc.ModelPermissionRepo.Find(ctx, modelID, caller.UserID)
	if err != nil {
		return nil, nil, err
	}

	var membership *mmodel.TeamMembership

	if model.TeamID != nil {
		if teamID, err := uuid.Parse(*model.TeamID); err == nil {
			membership, err = uc.TeamRepo.Membership(ctx, teamID, caller.UserID)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if permission.Resolve(caller, model, explicit, membership) == mmodel.PermissionNone {
		return nil, nil, modelNotFoundErr()
	}

	return uc.openArtifact(ctx, model, compressed)
}

// PublicDownloadModel serves an artifact to the synthetic public principal:
// only models both public and readable by the default permission qualify.
func (uc *UseCase) PublicDownloadModel(ctx context.Context, modelID uuid.UUID, compressed bool) (io.ReadCloser, *mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.public_download_model")
	defer span.End()

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, nil, err
	}

	if model.Access != mmodel.AccessPublic || model.DefaultPermission == mmodel.PermissionNone {
		return nil, nil, modelNotFoundErr()
	}

	return uc.openArtifact(ctx, model, compressed)
}

func (uc *UseCase) openArtifact(ctx context.Context, model *mmodel.Model, compressed bool) (io.ReadCloser, *mmodel.Model, error) {
	if model.TrainState != mmodel.StateComplete {
		return nil, nil, common.UnprocessableOperationError{
			EntityType: "Model",
			Title:      "Artifact Not Complete",
			Code:       cn.ErrArtifactNotComplete.Error(),
			Message:    "This model's artifact has not finished uploading or training.",
		}
	}

	if err := uc.ArtifactStore.PrepareDownload(ctx, model.ID, compressed); err != nil {
		return nil, nil, err
	}

	r, err := uc.ArtifactStore.Stream(ctx, model.ID, compressed)
	if err != nil {
		return nil, nil, err
	}

	return r, model, nil
}

func modelNotFoundErr() error {
	return common.EntityNotFoundError{
		EntityType: "Model",
		Title:      "Model Not Found",
		Code:       cn.ErrModelNotFound.Error(),
		Message:    "No model was found matching the provided ID.",
	}
}
