package in

import (
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	commonHTTP "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/command"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/query"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DeployHandler exposes deployment lifecycle operations: creation, stop,
// status lookup, and the runner's readiness callback.
type DeployHandler struct {
	Command   *command.UseCase
	Query     *query.UseCase
	Principal *PrincipalResolver
}

// Run deploys a completed model under a new name. The source model and the
// new deployment's name both travel as query parameters.
func (handler *DeployHandler) Run(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.deploy_run")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	model, err := resolveModelIdentifier(ctx, handler.Command.ModelRepo, handler.Command.UserRepo, c.Query("model_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	in := &mmodel.CreateDeploymentInput{
		Name:               c.Query("deployment_name"),
		SourceModelID:      model.ID,
		AutoscalingEnabled: c.QueryBool("autoscaling_enabled"),
	}
	if err := commonHTTP.ValidateStruct(in); err != nil {
		return commonHTTP.WithError(c, err)
	}

	deployment, err := handler.Command.CreateDeployment(ctx, ownerID, in)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create deployment", err)
		return commonHTTP.WithError(c, err)
	}

	deploymentID, err := uuid.Parse(deployment.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "deployment id is malformed")
	}

	if err := handler.Command.SubmitDeployJob(ctx, deploymentID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to submit deploy job", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.Accepted(c, deployment)
}

// resolveDeploymentIdentifier accepts either a deployment's UUID or the name
// of a deployment owned by ownerID; an "<owner>/<name>" form is not parsed.
func resolveDeploymentIdentifier(c *fiber.Ctx, handler *DeployHandler, ownerID uuid.UUID, identifier string) (*mmodel.Deployment, error) {
	ctx := c.UserContext()

	if id, err := uuid.Parse(identifier); err == nil {
		return handler.Query.DeploymentRepo.Find(ctx, id)
	}

	return handler.Query.DeploymentRepo.FindByOwnerAndName(ctx, ownerID, identifier)
}

// Stop requests teardown of a running or starting deployment.
func (handler *DeployHandler) Stop(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.deploy_stop")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	deployment, err := resolveDeploymentIdentifier(c, handler, ownerID, c.Query("deployment_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	deploymentID, err := uuid.Parse(deployment.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "deployment id is malformed")
	}

	if err := handler.Command.StopDeployment(ctx, deploymentID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to stop deployment", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// Status reports a deployment's lifecycle state to its owner or a global admin.
func (handler *DeployHandler) Status(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.deploy_status")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	deployment, err := resolveDeploymentIdentifier(c, handler, userID, c.Query("deployment_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	deploymentID, err := uuid.Parse(deployment.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "deployment id is malformed")
	}

	caller := handler.Principal.Resolve(ctx, userID)

	status, err := handler.Query.DeployStatus(ctx, caller, deploymentID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to read deploy status", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, status)
}

// UpdateStatus applies the runner's readiness callback for a deployment.
func (handler *DeployHandler) UpdateStatus(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.deploy_update_status")
	defer span.End()

	payload := i.(*mmodel.UpdateDeploymentStatusInput)

	if err := handler.Command.UpdateDeploymentStatus(ctx, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to apply deploy status callback", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// Permissions lists the explicit per-user permission overrides on a
// deployment's source model, visible to the deployment's owner or a global admin.
func (handler *DeployHandler) Permissions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.deploy_permissions")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	deploymentID, err := uuid.Parse(c.Params("deployment_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "deployment_id is not a valid identifier"})
	}

	caller := handler.Principal.Resolve(ctx, userID)

	deployment, err := handler.Query.DeployStatus(ctx, caller, deploymentID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to read deployment for permissions lookup", err)
		return commonHTTP.WithError(c, err)
	}

	sourceModelID, err := uuid.Parse(deployment.SourceModelID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "source model id is malformed")
	}

	perms, err := handler.Query.ModelPermissionRepo.ListByModel(ctx, sourceModelID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list model permissions", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, perms)
}
