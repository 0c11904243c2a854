package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitTrainJob_TransitionsNotStartedToStartingAndPublishes(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	producer := newFakeRabbitMQProducer()
	uc := &UseCase{ModelRepo: modelRepo, RabbitMQRepo: producer}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateNotStarted})
	require.NoError(t, err)
	modelID, _ := uuid.Parse(model.ID)

	err = uc.SubmitTrainJob(ctx, modelID, map[string]any{"epochs": 3})

	require.NoError(t, err)
	updated, err := modelRepo.Find(ctx, modelID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateStarting, updated.TrainState)
	require.Len(t, producer.published, 1)
	assert.Equal(t, JobsSubmitExchange, producer.published[0].Exchange)
}

func TestSubmitTrainJob_RejectsIllegalTransitionFromComplete(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, RabbitMQRepo: newFakeRabbitMQProducer()}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m", TrainState: mmodel.StateComplete})
	require.NoError(t, err)
	modelID, _ := uuid.Parse(model.ID)

	err = uc.SubmitTrainJob(ctx, modelID, nil)

	assert.Error(t, err)
}
