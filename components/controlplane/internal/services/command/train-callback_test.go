package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainUpdateStatus_AppendsWarningLineOnIntermediateStatus(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateStarting})
	require.NoError(t, err)

	err = uc.TrainUpdateStatus(ctx, &mmodel.TrainUpdateStatusInput{ModelID: model.ID, Status: mmodel.StateInProgress, Message: "started epoch 1"})

	require.NoError(t, err)
	msgs := jobRepo.byModel[model.ID]
	require.Len(t, msgs, 1)
	assert.Equal(t, string(mmodel.JobLevelWarning), msgs[0].Level)
}

func TestTrainUpdateStatus_AppendsErrorLineOnFailure(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateInProgress})
	require.NoError(t, err)

	err = uc.TrainUpdateStatus(ctx, &mmodel.TrainUpdateStatusInput{ModelID: model.ID, Status: mmodel.StateFailed, Message: "out of memory"})

	require.NoError(t, err)
	msgs := jobRepo.byModel[model.ID]
	require.Len(t, msgs, 1)
	assert.Equal(t, string(mmodel.JobLevelError), msgs[0].Level)
}

func TestTrainComplete_MergesMetadataAndPublishes(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	metaRepo := newFakeModelMetadataRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelMetadataRepo: metaRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateInProgress})
	require.NoError(t, err)

	err = uc.TrainComplete(ctx, &mmodel.TrainCompleteInput{
		ModelID: model.ID,
		Metadata: map[string]any{
			"general": map[string]any{"accuracy": 0.9},
			"train":   map[string]any{"epochs": 5},
		},
	})

	require.NoError(t, err)

	modelID, _ := uuid.Parse(model.ID)
	updated, err := modelRepo.Find(ctx, modelID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateComplete, updated.TrainState)
	require.NotNil(t, updated.PublishedAt)

	meta := metaRepo.byModel[model.ID]
	require.NotNil(t, meta)
	assert.Equal(t, 0.9, meta.General["accuracy"])
}

func TestTrainComplete_AllowsTransitionFromStarting(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	metaRepo := newFakeModelMetadataRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelMetadataRepo: metaRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateStarting})
	require.NoError(t, err)

	err = uc.TrainComplete(ctx, &mmodel.TrainCompleteInput{ModelID: model.ID})

	require.NoError(t, err)

	modelID, _ := uuid.Parse(model.ID)
	updated, err := modelRepo.Find(ctx, modelID)
	require.NoError(t, err)
	assert.Equal(t, mmodel.StateComplete, updated.TrainState)
}

func TestTrainComplete_DuplicateCallbackIsNoOp(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	metaRepo := newFakeModelMetadataRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelMetadataRepo: metaRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateComplete})
	require.NoError(t, err)

	err = uc.TrainComplete(ctx, &mmodel.TrainCompleteInput{ModelID: model.ID})

	assert.NoError(t, err)
	assert.Empty(t, metaRepo.byModel)
	assert.Empty(t, jobRepo.byModel[model.ID])
}

func TestTrainUpdateStatus_DuplicateFailedCallbackIsNoOp(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	jobRepo := newFakeJobMessageRepo()
	uc := &UseCase{ModelRepo: modelRepo, JobMessageRepo: jobRepo}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateFailed})
	require.NoError(t, err)

	err = uc.TrainUpdateStatus(ctx, &mmodel.TrainUpdateStatusInput{ModelID: model.ID, Status: mmodel.StateFailed, Message: "already failed"})

	assert.NoError(t, err)
	assert.Empty(t, jobRepo.byModel[model.ID])
}

func TestTrainComplete_RejectsIllegalTransitionFromNotStarted(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelMetadataRepo: newFakeModelMetadataRepo(), JobMessageRepo: newFakeJobMessageRepo()}

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: uuid.New().String(), Name: "m", TrainState: mmodel.StateNotStarted})
	require.NoError(t, err)

	err = uc.TrainComplete(ctx, &mmodel.TrainCompleteInput{ModelID: model.ID})

	assert.Error(t, err)
}
