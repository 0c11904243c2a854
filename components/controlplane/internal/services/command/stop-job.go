package command

import (
	"context"
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// JobsStopExchange is the exchange the orchestrator publishes stop requests
// to; the runner acknowledges asynchronously through the same status
// callback a normal terminal state uses.
const JobsStopExchange = "jobs.stop"

// StopDeployment requests that a running or starting deployment be torn
// down, transitioning it to stopped once the runner confirms via its
// terminal callback.
func (uc *UseCase) StopDeployment(ctx context.Context, deploymentID uuid.UUID) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.stop_deployment")
	defer span.End()

	deployment, err := uc.DeploymentRepo.Find(ctx, deploymentID)
	if err != nil {
		return err
	}

	if mmodel.IsTerminal(deployment.State) {
		return newInvalidJobTransitionError(deployment.State, mmodel.StateStopped)
	}

	spec := map[string]any{
		"jobKind":      mmodel.JobKindDeploy,
		"deploymentId": deployment.ID,
	}

	body, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	return uc.RabbitMQRepo.ProducerDefault(ctx, JobsStopExchange, JobsSubmitDeployKey, body)
}
