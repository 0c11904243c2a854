package command

import (
	"context"
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// JobsSubmitExchange is the exchange the orchestrator publishes job specs to.
const JobsSubmitExchange = "jobs.submit"

// SubmitTrainJob transitions a reserved model from not-started to starting
// and publishes its job specification to the runner.
func (uc *UseCase) SubmitTrainJob(ctx context.Context, modelID uuid.UUID, options map[string]any) error {
	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.submit_train_job")
	defer span.End()

	model, err := uc.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return err
	}

	if err := uc.transitionTrainState(ctx, model, mmodel.StateStarting); err != nil {
		return err
	}

	spec := map[string]any{
		"jobKind": mmodel.JobKindTrain,
		"modelId": model.ID,
		"kind":    model.Kind,
		"subKind": model.SubKind,
		"options": options,
	}

	body, err := json.Marshal(spec)
	if err != nil {
		return err
	}

	if err := uc.RabbitMQRepo.ProducerDefault(ctx, JobsSubmitExchange, string(mmodel.JobKindTrain), body); err != nil {
		logger.Errorf("failed to submit train job for model %s: %v", model.ID, err)

		return err
	}

	return nil
}

// transitionTrainState enforces the job state machine and persists the move.
// A duplicate terminal callback (the row already settled at to) is an
// idempotent no-op, per the runner's at-least-once callback semantics.
func (uc *UseCase) transitionTrainState(ctx context.Context, model *mmodel.Model, to mmodel.TrainState) error {
	if mmodel.IsDuplicateJobCallback(model.TrainState, to) {
		return nil
	}

	if !mmodel.IsValidJobTransition(model.TrainState, to) {
		return newInvalidJobTransitionError(model.TrainState, to)
	}

	model.TrainState = to

	modelID, err := uuid.Parse(model.ID)
	if err != nil {
		return err
	}

	_, err = uc.ModelRepo.Update(ctx, modelID, model)

	return err
}
