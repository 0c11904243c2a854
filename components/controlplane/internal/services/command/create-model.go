package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// CreateModel reserves the (owner, name) pair for a train request,
// creating the catalog row in not-started state. Per the data model's
// lifecycle rule (spec §3), the row exists before training actually starts.
func (uc *UseCase) CreateModel(ctx context.Context, ownerID uuid.UUID, in *mmodel.TrainRequest) (*mmodel.Model, error) {
	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_model")
	defer span.End()

	logger.Infof("reserving model %s for owner %s", in.ModelName, ownerID)

	if in.AccessLevel == mmodel.AccessProtected && in.TeamID == nil {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Missing Team",
			Message: "A protected-access model must specify a team.",
		}
	}

	if in.BaseModelID != nil {
		if err := uc.assertNoCycle(ctx, *in.BaseModelID); err != nil {
			return nil, err
		}
	}

	model := &mmodel.Model{
		Name:              in.ModelName,
		OwnerUserID:       ownerID.String(),
		TeamID:            in.TeamID,
		Access:            in.AccessLevel,
		DefaultPermission: mmodel.PermissionRead,
		Kind:              in.Kind,
		SubKind:           in.SubKind,
		TrainState:        mmodel.StateNotStarted,
		ParentModelID:     in.BaseModelID,
	}

	created, err := uc.ModelRepo.Create(ctx, model)
	if err != nil {
		logger.Errorf("failed to reserve model: %v", err)

		return nil, err
	}

	if in.BaseModelID != nil {
		parentID, err := uuid.Parse(*in.BaseModelID)
		if err != nil {
			return nil, err
		}

		childID, err := uuid.Parse(created.ID)
		if err != nil {
			return nil, err
		}

		if err := uc.ModelDependencyRepo.Add(ctx, childID, parentID); err != nil {
			logger.Errorf("failed to record model dependency: %v", err)

			return nil, err
		}
	}

	return created, nil
}

// assertNoCycle checks that candidateParentID is a valid identifier and that
// the base model exists. It does not walk the dependency graph; the cycle
// check runs in the dependency repository's Add once the child ID is known.
func (uc *UseCase) assertNoCycle(ctx context.Context, candidateParentID string) error {
	parentID, err := uuid.Parse(candidateParentID)
	if err != nil {
		return common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Base Model",
			Message: "baseModelId is not a valid identifier.",
		}
	}

	if _, err := uc.ModelRepo.Find(ctx, parentID); err != nil {
		return err
	}

	return nil
}
