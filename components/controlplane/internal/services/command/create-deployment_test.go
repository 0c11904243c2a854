package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDeployment_SucceedsForCompletedModel(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	deploymentRepo := newFakeDeploymentRepo()
	uc := &UseCase{ModelRepo: modelRepo, DeploymentRepo: deploymentRepo}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateComplete})
	require.NoError(t, err)

	deployment, err := uc.CreateDeployment(ctx, owner, &mmodel.CreateDeploymentInput{Name: "dep", SourceModelID: model.ID})

	require.NoError(t, err)
	assert.Equal(t, mmodel.StateNotStarted, deployment.State)
}

func TestCreateDeployment_RejectsIncompleteModel(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, DeploymentRepo: newFakeDeploymentRepo()}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateInProgress})
	require.NoError(t, err)

	_, err = uc.CreateDeployment(ctx, owner, &mmodel.CreateDeploymentInput{Name: "dep", SourceModelID: model.ID})

	assert.Error(t, err)
}

func TestDeleteModel_RejectsWhileDeploymentsExist(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	deploymentRepo := newFakeDeploymentRepo()
	artifactStore := newFakeArtifactStore()
	uc := &UseCase{ModelRepo: modelRepo, DeploymentRepo: deploymentRepo, ArtifactStore: artifactStore}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateComplete})
	require.NoError(t, err)
	modelID, _ := uuid.Parse(model.ID)

	_, err = deploymentRepo.Create(ctx, &mmodel.Deployment{SourceModelID: model.ID})
	require.NoError(t, err)

	err = uc.DeleteModel(ctx, modelID)

	assert.Error(t, err)
}

func TestDeleteModel_SucceedsWhenNoDeployments(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, DeploymentRepo: newFakeDeploymentRepo(), ArtifactStore: newFakeArtifactStore()}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateComplete})
	require.NoError(t, err)
	modelID, _ := uuid.Parse(model.ID)

	err = uc.DeleteModel(ctx, modelID)

	require.NoError(t, err)
	_, err = modelRepo.Find(ctx, modelID)
	assert.Error(t, err)
}
