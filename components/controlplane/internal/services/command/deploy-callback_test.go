package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDeployJob_TransitionsNotStartedToStartingAndPublishes(t *testing.T) {
	ctx := context.Background()
	deploymentRepo := newFakeDeploymentRepo()
	producer := newFakeRabbitMQProducer()
	uc := &UseCase{DeploymentRepo: deploymentRepo, RabbitMQRepo: producer}

	deployment, err := deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: uuid.New().String(), State: mmodel.StateNotStarted})
	require.NoError(t, err)
	deploymentID, _ := uuid.Parse(deployment.ID)

	err = uc.SubmitDeployJob(ctx, deploymentID)

	require.NoError(t, err)
	updated, err := deploymentRepo.Find(ctx, deploymentID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateStarting, updated.State)
	require.Len(t, producer.published, 1)
}

func TestUpdateDeploymentStatus_CompleteSetsPublishedAt(t *testing.T) {
	ctx := context.Background()
	deploymentRepo := newFakeDeploymentRepo()
	uc := &UseCase{DeploymentRepo: deploymentRepo}

	deployment, err := deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: uuid.New().String(), State: mmodel.StateInProgress})
	require.NoError(t, err)

	err = uc.UpdateDeploymentStatus(ctx, &mmodel.UpdateDeploymentStatusInput{DeploymentID: deployment.ID, Status: mmodel.StateComplete})

	require.NoError(t, err)
	deploymentID, _ := uuid.Parse(deployment.ID)
	updated, err := deploymentRepo.Find(ctx, deploymentID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateComplete, updated.State)
	assert.NotNil(t, updated.PublishedAt)
}

func TestUpdateDeploymentStatus_AllowsCompleteFromStarting(t *testing.T) {
	ctx := context.Background()
	deploymentRepo := newFakeDeploymentRepo()
	uc := &UseCase{DeploymentRepo: deploymentRepo}

	deployment, err := deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: uuid.New().String(), State: mmodel.StateStarting})
	require.NoError(t, err)

	err = uc.UpdateDeploymentStatus(ctx, &mmodel.UpdateDeploymentStatusInput{DeploymentID: deployment.ID, Status: mmodel.StateComplete})

	require.NoError(t, err)
	deploymentID, _ := uuid.Parse(deployment.ID)
	updated, err := deploymentRepo.Find(ctx, deploymentID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateComplete, updated.State)
}

func TestUpdateDeploymentStatus_DuplicateCompleteCallbackIsNoOp(t *testing.T) {
	ctx := context.Background()
	deploymentRepo := newFakeDeploymentRepo()
	uc := &UseCase{DeploymentRepo: deploymentRepo}

	deployment, err := deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: uuid.New().String(), State: mmodel.StateComplete})
	require.NoError(t, err)

	err = uc.UpdateDeploymentStatus(ctx, &mmodel.UpdateDeploymentStatusInput{DeploymentID: deployment.ID, Status: mmodel.StateComplete})

	assert.NoError(t, err)
}

func TestUpdateDeploymentStatus_RejectsIllegalTransition(t *testing.T) {
	ctx := context.Background()
	deploymentRepo := newFakeDeploymentRepo()
	uc := &UseCase{DeploymentRepo: deploymentRepo}

	deployment, err := deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: uuid.New().String(), State: mmodel.StateComplete})
	require.NoError(t, err)

	err = uc.UpdateDeploymentStatus(ctx, &mmodel.UpdateDeploymentStatusInput{DeploymentID: deployment.ID, Status: mmodel.StateStarting})

	assert.Error(t, err)
}
