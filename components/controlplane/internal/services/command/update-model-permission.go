package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// UpdateModelPermission grants or revises an explicit per-user permission
// override on a model. Only the owner or a global admin may grant; the
// grant can never be used to weaken the owner's own floor (the resolver
// always returns write for the owner regardless of what is stored here).
func (uc *UseCase) UpdateModelPermission(ctx context.Context, caller permission.Principal, in *mmodel.UpdateModelPermissionInput) (*mmodel.ModelPermission, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_model_permission")
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
			Message: "Only the owner or a global admin may grant a model permission.",
		}
	}

	grantee, err := uc.UserRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	perm := &mmodel.ModelPermission{
		UserID:     grantee.ID,
		ModelID:    in.ModelID,
		Permission: in.Permission,
	}

	if err := uc.ModelPermissionRepo.Upsert(ctx, perm); err != nil {
		return nil, err
	}

	return perm, nil
}
