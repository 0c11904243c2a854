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

// ModelHandler exposes catalog read/write operations other than upload,
// download, and training, which get their own handlers.
type ModelHandler struct {
	Command   *command.UseCase
	Query     *query.UseCase
	Principal *PrincipalResolver
}

// nameCheckResponse is the payload returned by NameCheck.
type nameCheckResponse struct {
	Available bool `json:"available"`
}

func filterFromQuery(c *fiber.Ctx) mmodel.ModelFilter {
	return mmodel.ModelFilter{
		Name:        c.Query("name"),
		Kind:        c.Query("type"),
		SubKind:     c.Query("sub_type"),
		AccessLevel: mmodel.AccessLevel(c.Query("access_level")),
	}
}

// List returns every model the caller may at least read.
func (handler *ModelHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.list_models")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	caller := handler.Principal.Resolve(ctx, userID)

	headerParams := commonHTTP.ValidateParameters(c.Queries())

	models, err := handler.Query.ListModels(ctx, caller, filterFromQuery(c), headerParams.Limit, headerParams.Page)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list models", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, models)
}

// PublicList returns every public model, for an unauthenticated caller.
func (handler *ModelHandler) PublicList(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.public_list_models")
	defer span.End()

	headerParams := commonHTTP.ValidateParameters(c.Queries())

	models, err := handler.Query.PublicListModels(ctx, filterFromQuery(c), headerParams.Limit, headerParams.Page)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list public models", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, models)
}

// Info returns a model's catalog row, metadata, and the caller's effective permission on it.
func (handler *ModelHandler) Info(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.model_info")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	modelID, err := uuid.Parse(c.Query("model_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "model_id is not a valid identifier"})
	}

	caller := handler.Principal.Resolve(ctx, userID)

	info, err := handler.Query.GetModelInfo(ctx, caller, modelID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to get model info", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, info)
}

// NameCheck reports whether the caller already owns a model with the given name.
func (handler *ModelHandler) NameCheck(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.name_check")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	available, err := handler.Query.NameCheck(ctx, userID, c.Query("name"))
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to check model name", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, nameCheckResponse{Available: available})
}

// UpdateAccessLevel changes a model's visibility. Both the target model and
// the new access level travel as query parameters, matching the rest of the
// model endpoint surface.
func (handler *ModelHandler) UpdateAccessLevel(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.update_access_level")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	model, err := resolveModelIdentifier(ctx, handler.Command.ModelRepo, handler.Command.UserRepo, c.Query("model_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	modelID, err := uuid.Parse(model.ID)
	if err != nil {
		return commonHTTP.InternalServerError(c, "", "", "model id is malformed")
	}

	payload := &mmodel.UpdateAccessLevelInput{AccessLevel: mmodel.AccessLevel(c.Query("access_level"))}
	if err := commonHTTP.ValidateStruct(payload); err != nil {
		return commonHTTP.WithError(c, err)
	}

	caller := handler.Principal.Resolve(ctx, userID)

	model, err = handler.Command.UpdateAccessLevel(ctx, caller, modelID, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to update access level", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, model)
}

// UpdateDefaultPermission changes the permission a model's default caller receives.
func (handler *ModelHandler) UpdateDefaultPermission(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.update_default_permission")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	payload := i.(*mmodel.UpdateDefaultPermissionInput)

	caller := handler.Principal.Resolve(ctx, userID)

	model, err := handler.Command.UpdateDefaultPermission(ctx, caller, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to update default permission", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, model)
}

// UpdateModelPermission grants or revises an explicit per-user permission
// override. The target model, grantee, and permission all travel as query
// parameters, matching the rest of the model endpoint surface.
func (handler *ModelHandler) UpdateModelPermission(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.update_model_permission")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	model, err := resolveModelIdentifier(ctx, handler.Command.ModelRepo, handler.Command.UserRepo, c.Query("model_identifier"))
	if err != nil {
		return commonHTTP.WithError(c, err)
	}

	payload := &mmodel.UpdateModelPermissionInput{
		ModelID:    model.ID,
		Email:      c.Query("email"),
		Permission: mmodel.Permission(c.Query("permission")),
	}
	if err := commonHTTP.ValidateStruct(payload); err != nil {
		return commonHTTP.WithError(c, err)
	}

	caller := handler.Principal.Resolve(ctx, userID)

	perm, err := handler.Command.UpdateModelPermission(ctx, caller, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to update model permission", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, perm)
}
