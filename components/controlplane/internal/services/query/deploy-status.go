package query

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// DeployStatus backs GET /deploy/status?deployment_identifier. Only the
// deployment's owner or a global admin may query it.
func (uc *UseCase) DeployStatus(ctx context.Context, caller permission.Principal, deploymentID uuid.UUID) (*mmodel.Deployment, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.deploy_status")
	defer span.End()

	deployment, err := uc.DeploymentRepo.Find(ctx, deploymentID)
	if err != nil {
		return nil, err
	}

	if !caller.IsGlobalAdmin && caller.UserID.String() != deployment.OwnerUserID {
		return nil, common.EntityNotFoundError{
			EntityType: "Deployment",
			Title:      "Deployment Not Found",
			Code:       cn.ErrDeploymentNotFound.Error(),
			Message:    "No deployment was found matching the provided ID.",
		}
	}

	return deployment, nil
}
