package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// UpdateAccessLevel changes a model's visibility. Only the owner or a
// global admin may do this — an explicit write grant is not enough, since
// access level governs who can hold a grant at all.
func (uc *UseCase) UpdateAccessLevel(ctx context.Context, caller permission.Principal, modelID uuid.UUID, in *mmodel.UpdateAccessLevelInput) (*mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_access_level")
	defer span.End()

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if !caller.IsGlobalAdmin && caller.UserID.String() != model.OwnerUserID {
		return nil, common.ForbiddenError{
			Code:    cn.ErrActionNotPermitted.Error(),
			Title:   "Forbidden",
			Message: "Only the owner or a global admin may change a model's access level.",
		}
	}

	if in.AccessLevel == mmodel.AccessProtected && model.TeamID == nil {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Missing Team",
			Message: "A protected-access model must already have a team assigned.",
		}
	}

	model.Access = in.AccessLevel

	return uc.ModelRepo.Update(ctx, modelID, model)
}

// UpdateDefaultPermission changes the permission unauthenticated/default
// callers receive on a public or protected model. Owner/global-admin only.
func (uc *UseCase) UpdateDefaultPermission(ctx context.Context, caller permission.Principal, in *mmodel.UpdateDefaultPermissionInput) (*mmodel.Model, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_default_permission")
	defer span.End()

	modelID, err := uuid.Parse(in.ModelID)
	if err != nil {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Model",
			Message: "modelId is not a valid identifier.",
		}
	}

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if !caller.IsGlobalAdmin && caller.UserID.String() != model.OwnerUserID {
		return nil, common.ForbiddenError{
			Code:    cn.ErrActionNotPermitted.Error(),
			Title:   "Forbidden",
			Message: "Only the owner or a global admin may change a model's default permission.",
		}
	}

	model.DefaultPermission = in.Permission

	return uc.ModelRepo.Update(ctx, modelID, model)
}
