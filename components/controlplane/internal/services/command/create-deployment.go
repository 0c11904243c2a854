package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// CreateDeployment deploys a completed model. A deployment may only be
// created from a model whose TrainState is complete (spec §3/§4.4).
func (uc *UseCase) CreateDeployment(ctx context.Context, ownerID uuid.UUID, in *mmodel.CreateDeploymentInput) (*mmodel.Deployment, error) {
	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_deployment")
	defer span.End()

	sourceModelID, err := uuid.Parse(in.SourceModelID)
	if err != nil {
		return nil, common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Source Model",
			Message: "sourceModelId is not a valid identifier.",
		}
	}

	source, err := uc.ModelRepo.Find(ctx, sourceModelID)
	if err != nil {
		return nil, err
	}

	if source.TrainState != mmodel.StateComplete {
		return nil, common.UnprocessableOperationError{
			EntityType: "Deployment",
			Title:      "Model Not Complete",
			Code:       cn.ErrModelNotComplete.Error(),
			Message:    "A deployment can only be created from a model whose training has completed.",
		}
	}

	deployment := &mmodel.Deployment{
		Name:               in.Name,
		OwnerUserID:        ownerID.String(),
		SourceModelID:      in.SourceModelID,
		State:              mmodel.StateNotStarted,
		AutoscalingEnabled: in.AutoscalingEnabled,
	}

	created, err := uc.DeploymentRepo.Create(ctx, deployment)
	if err != nil {
		logger.Errorf("failed to create deployment: %v", err)

		return nil, err
	}

	return created, nil
}

// DeleteModel destroys a model row, cascading to metadata, permissions, and
// re-parenting child references to null (enforced by DB foreign keys). It is
// rejected while any deployment row, in any state, still references the model.
func (uc *UseCase) DeleteModel(ctx context.Context, modelID uuid.UUID) error {
	deployments, err := uc.DeploymentRepo.ListBySourceModel(ctx, modelID)
	if err != nil {
		return err
	}

	if len(deployments) > 0 {
		return common.UnprocessableOperationError{
			EntityType: "Model",
			Title:      "Deployments Exist",
			Code:       cn.ErrDeploymentsExist.Error(),
			Message:    "This model cannot be deleted while deployments still reference it.",
		}
	}

	if err := uc.ArtifactStore.Delete(ctx, modelID.String()); err != nil {
		return err
	}

	return uc.ModelRepo.Delete(ctx, modelID)
}
