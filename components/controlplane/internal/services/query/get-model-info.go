package query

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// ModelInfo bundles a model with its merged general/train metadata and the
// effective permission the requesting caller holds on it.
type ModelInfo struct {
	Model      *mmodel.Model
	Metadata   *mmodel.ModelMetadata
	Permission mmodel.Permission
}

// GetModelInfo returns a model's catalog row and metadata, resolving the
// caller's effective permission the same way DownloadModel does. A caller with no permission at all sees a not-found error rather than
// a forbidden one, so existence of private models isn't leaked.
func (uc *UseCase) GetModelInfo(ctx context.Context, caller permission.Principal, modelID uuid.UUID) (*ModelInfo, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_model_info")
	defer span.End()

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}

	explicit, err := uc.ModelPermissionRepo.Find(ctx, modelID, caller.UserID)
	if err != nil {
		return nil, err
	}

	var membership *mmodel.TeamMembership

	if model.TeamID != nil {
		teamID, err := uuid.Parse(*model.TeamID)
		if err == nil {
			membership, err = uc.TeamRepo.Membership(ctx, teamID, caller.UserID)
			if err != nil {
				return nil, err
			}
		}
	}

	perm := permission.Resolve(caller, model, explicit, membership)
	if perm == mmodel.PermissionNone {
		return nil, common.EntityNotFoundError{
			EntityType: "Model",
			Title:      "Model Not Found",
			Code:       cn.ErrModelNotFound.Error(),
			Message:    "No model was found matching the provided ID.",
		}
	}

	meta, err := uc.ModelMetadataRepo.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}

	return &ModelInfo{Model: model, Metadata: meta, Permission: perm}, nil
}
