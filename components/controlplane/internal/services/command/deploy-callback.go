package command

import (
	"context"
	"encoding/json"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// JobsSubmitDeployKey is the routing key for deploy job specs, published to
// the same JobsSubmitExchange the train pipeline uses.
const JobsSubmitDeployKey = "deploy"

// SubmitDeployJob transitions a reserved deployment to starting and
// publishes its job specification to the runner.
func (uc *UseCase) SubmitDeployJob(ctx context.Context, deploymentID uuid.UUID) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.submit_deploy_job")
	defer span.End()

	deployment, err := uc.DeploymentRepo.Find(ctx, deploymentID)
	if err != nil {
		return err
	}

	if err := uc.transitionDeployState(ctx, deployment, mmodel.StateStarting); err != nil {
		return err
	}

	spec := map[string]any{
		"jobKind":            mmodel.JobKindDeploy,
		"deploymentId":       deployment.ID,
		"sourceModelId":      deployment.SourceModelID,
		"autoscalingEnabled": deployment.AutoscalingEnabled,
	}

	body, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	return uc.RabbitMQRepo.ProducerDefault(ctx, JobsSubmitExchange, JobsSubmitDeployKey, body)
}

// UpdateDeploymentStatus applies the runner's readiness callback for a
// deployment, enforcing the shared job state machine.
func (uc *UseCase) UpdateDeploymentStatus(ctx context.Context, in *mmodel.UpdateDeploymentStatusInput) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.update_deployment_status")
	defer span.End()

	deploymentID, err := uuid.Parse(in.DeploymentID)
	if err != nil {
		return err
	}

	deployment, err := uc.DeploymentRepo.Find(ctx, deploymentID)
	if err != nil {
		return err
	}

	if in.Status == mmodel.StateComplete {
		now := time.Now().UTC()
		deployment.PublishedAt = &now
	}

	return uc.transitionDeployState(ctx, deployment, in.Status)
}

// transitionDeployState enforces the job state machine and persists the
// move. A duplicate terminal callback (the row already settled at to) is an
// idempotent no-op, per the runner's at-least-once callback semantics.
func (uc *UseCase) transitionDeployState(ctx context.Context, deployment *mmodel.Deployment, to mmodel.TrainState) error {
	if mmodel.IsDuplicateJobCallback(deployment.State, to) {
		return nil
	}

	if !mmodel.IsValidJobTransition(deployment.State, to) {
		return newInvalidJobTransitionError(deployment.State, to)
	}

	deployment.State = to

	deploymentID, err := uuid.Parse(deployment.ID)
	if err != nil {
		return err
	}

	_, err = uc.DeploymentRepo.Update(ctx, deploymentID, deployment)

	return err
}
