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

// TeamHandler exposes team management operations.
type TeamHandler struct {
	Command   *command.UseCase
	Query     *query.UseCase
	Principal *PrincipalResolver
}

// CreateTeam creates a team and enrolls the caller as its first team-admin.
func (handler *TeamHandler) CreateTeam(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.create_team")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	callerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	payload := i.(*mmodel.CreateTeamInput)

	team, err := handler.Command.CreateTeam(ctx, callerID, payload)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to create team", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.Created(c, team)
}

// AddUserToTeam enrolls an existing user in a team by email.
func (handler *TeamHandler) AddUserToTeam(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.add_user_to_team")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	callerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	caller := handler.Principal.Resolve(ctx, callerID)

	payload := i.(*mmodel.AddUserToTeamInput)

	if err := handler.Command.AddUserToTeam(ctx, callerID, caller.IsGlobalAdmin, payload); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to add user to team", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// AssignTeamAdmin promotes an existing team member to the team-admin role.
func (handler *TeamHandler) AssignTeamAdmin(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.assign_team_admin")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	callerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	caller := handler.Principal.Resolve(ctx, callerID)

	teamID, err := uuid.Parse(c.Query("team_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "team_id is not a valid identifier"})
	}

	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "user_id is not a valid identifier"})
	}

	if err := handler.Command.AssignTeamAdmin(ctx, callerID, caller.IsGlobalAdmin, teamID, userID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to assign team admin", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// DeleteTeam removes a team and its memberships.
func (handler *TeamHandler) DeleteTeam(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.delete_team")
	defer span.End()

	claims, ok := commonHTTP.ClaimsFromContext(c)
	if !ok {
		return commonHTTP.Unauthorized(c, "1013", "Missing Token", "Must provide a bearer token")
	}

	callerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return commonHTTP.Unauthorized(c, "1013", "Invalid Token", "The token does not reference a valid account.")
	}

	caller := handler.Principal.Resolve(ctx, callerID)

	teamID, err := uuid.Parse(c.Query("team_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "team_id is not a valid identifier"})
	}

	if err := handler.Command.DeleteTeam(ctx, callerID, caller.IsGlobalAdmin, teamID); err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to delete team", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.NoContent(c)
}

// List returns every team.
func (handler *TeamHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.list_teams")
	defer span.End()

	teams, err := handler.Query.ListTeams(ctx)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list teams", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, teams)
}

// TeamUsers returns a team's members together with their roles.
func (handler *TeamHandler) TeamUsers(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.team_users")
	defer span.End()

	teamID, err := uuid.Parse(c.Query("team_id"))
	if err != nil {
		return commonHTTP.BadRequest(c, commonHTTP.ResponseError{Message: "team_id is not a valid identifier"})
	}

	users, err := handler.Query.ListTeamUsers(ctx, teamID)
	if err != nil {
		mopentelemetry.HandleSpanError(&span, "Failed to list team users", err)
		return commonHTTP.WithError(c, err)
	}

	return commonHTTP.OK(c, users)
}
