package in

import (
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/command"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TrainHandler submits training jobs and accepts the runner's status callbacks.
type TrainHandler struct {
	Command *command.UseCase
}

// NDB accepts a multipart request carrying a JSON training spec (field
// "spec") plus zero or more training-data files, reserves the model row,
// stores the files through the artifact store, and submits the job.
func (handler *TrainHandler) NDB(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.train_ndb")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "request must be multipart/form-data"})
	}

	specValues := form.Value["spec"]
	if len(specValues) != 1 {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "request must carry exactly one \"spec\" field"})
	}

	var req mmodel.TrainRequest
	if err := json.Unmarshal([]byte(specValues[0]), &req); err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "spec is not valid JSON"})
	}

	if err := commonHTTP.ValidateStruct(&req); err != nil {
		return commonHTTP.WithError(c, err)
	}

	model, err := handler.Command.CreateModel(ctx, ownerID, &req)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to reserve model for training", err)
		return commonHTTP.WithError(c, err)
	}

	if err := handler.Command.ArtifactStore.Reserve(ctx, model.ID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to reserve artifact storage", err)
		return commonHTTP.WithError(c, err)
	}

	files := form.File["files"]
	for idx, fh := range files {
		f, err := fh.Open()
		if err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to open training data file", err)
			return commonHTTP.WithError(c, err)
		}

		err = handler.Command.ArtifactStore.PutChunk(ctx, model.ID, idx+1, f)

		f.Close()

		if err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to store training data file", err)
			return commonHTTP.WithError(c, err)
		}
	}

	if len(files) > 0 {
		if err := handler.Command.ArtifactStore.Commit(ctx, model.ID, len(files)); err != nil {
			mopentelemetry.HandleSpanError(&span, "Failed to commit training data", err)
			return commonHTTP.WithError(c, err)
		}
	}

	modelID, err := uuid.Parse(model.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "model id is malformed")
	}

	if err := handler.Command.SubmitTrainJob(ctx, modelID, req.Options); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to submit train job", err)
		return commonHTTP.WithError(c, err)
	}

	logger.Infof("submitted train job for model %s", model.ID)

	return commonHTTP.Accepted(c, model)
}

// Complete applies the runner's terminal-state callback for a train job.
func (handler *TrainHandler) Complete(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.train_complete")
	defer span.End()

	payload := i.(*mmodel.TrainCompleteInput)

	if err := handler.Command.TrainComplete(ctx, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to apply train completion callback", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// UpdateStatus applies the runner's intermediate or terminal status callback.
func (handler *TrainHandler) UpdateStatus(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.train_update_status")
	defer span.End()

	payload := i.(*mmodel.TrainUpdateStatusInput)

	if err := handler.Command.TrainUpdateStatus(ctx, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to apply train status callback", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}
