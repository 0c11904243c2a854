package command

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// TrainUpdateStatus applies the runner's intermediate or terminal status
// callback, enforcing the job state machine and appending a job-history line.
func (uc *UseCase) TrainUpdateStatus(ctx context.Context, in *mmodel.TrainUpdateStatusInput) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.train_update_status")
	defer span.End()

	modelID, err := uuid.Parse(in.ModelID)
	if err != nil {
		return err
	}

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return err
	}

	if mmodel.IsDuplicateJobCallback(model.TrainState, in.Status) {
		return nil
	}

	if err := uc.transitionTrainState(ctx, model, in.Status); err != nil {
		return err
	}

	level := mmodel.JobLevelWarning
	if in.Status == mmodel.StateFailed {
		level = mmodel.JobLevelError
	}

	return uc.JobMessageRepo.Append(ctx, &mmodel.JobMessage{
		ModelID: in.ModelID,
		Kind:    string(mmodel.JobKindTrain),
		Level:   string(level),
		Text:    in.Message,
	})
}

// TrainComplete applies the runner's terminal-state callback: merges the
// reported metadata and moves the model to complete, publishing it.
func (uc *UseCase) TrainComplete(ctx context.Context, in *mmodel.TrainCompleteInput) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.train_complete")
	defer span.End()

	modelID, err := uuid.Parse(in.ModelID)
	if err != nil {
		return err
	}

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return err
	}

	if mmodel.IsDuplicateJobCallback(model.TrainState, mmodel.StateComplete) {
		return nil
	}

	now := time.Now().UTC()
	model.PublishedAt = &now

	if err := uc.transitionTrainState(ctx, model, mmodel.StateComplete); err != nil {
		return err
	}

	general, _ := in.Metadata["general"].(map[string]any)
	train, _ := in.Metadata["train"].(map[string]any)

	if err := uc.ModelMetadataRepo.Upsert(ctx, &mmodel.ModelMetadata{
		ModelID: in.ModelID,
		General: general,
		Train:   train,
	}); err != nil {
		return err
	}

	return uc.JobMessageRepo.Append(ctx, &mmodel.JobMessage{
		ModelID: in.ModelID,
		Kind:    string(mmodel.JobKindTrain),
		Level:   string(mmodel.JobLevelWarning),
		Text:    "training completed",
	})
}
