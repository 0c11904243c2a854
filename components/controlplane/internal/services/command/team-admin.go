package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// AssignTeamAdmin promotes an existing team member to the team-admin role.
// Only callable by an existing team-admin of the same team or a global admin.
func (uc *UseCase) AssignTeamAdmin(ctx context.Context, caller uuid.UUID, callerIsGlobalAdmin bool, teamID, userID uuid.UUID) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.assign_team_admin")
	defer span.End()

	if !callerIsGlobalAdmin {
		callerMembership, err := uc.TeamRepo.Membership(ctx, teamID, caller)
		if err != nil {
			return err
		}

		if callerMembership == nil || callerMembership.Role != mmodel.TeamRoleTeamAdmin {
			return common.ForbiddenError{
				Code:    cn.ErrActionNotPermitted.Error(),
				Title:   "Forbidden",
				Message: "Only a team-admin of this team or a global admin may assign a team admin.",
			}
		}
	}

	membership, err := uc.TeamRepo.Membership(ctx, teamID, userID)
	if err != nil {
		return err
	}

	if membership == nil {
		return common.EntityNotFoundError{
			EntityType: "TeamMembership",
			Title:      "Not a Team Member",
			Code:       cn.ErrUserNotFound.Error(),
			Message:    "The target user is not a member of this team.",
		}
	}

	membership.Role = mmodel.TeamRoleTeamAdmin

	return uc.TeamRepo.AddMember(ctx, membership)
}

// DeleteTeam removes a team and its memberships. Only a team-admin of the
// team or a global admin may delete it. Models with the team assigned are not
// deleted; the model table's ON DELETE SET NULL on team_id clears their team.
func (uc *UseCase) DeleteTeam(ctx context.Context, caller uuid.UUID, callerIsGlobalAdmin bool, teamID uuid.UUID) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.delete_team")
	defer span.End()

	if !callerIsGlobalAdmin {
		membership, err := uc.TeamRepo.Membership(ctx, teamID, caller)
		if err != nil {
			return err
		}

		if membership == nil || membership.Role != mmodel.TeamRoleTeamAdmin {
			return common.ForbiddenError{
				Code:    cn.ErrActionNotPermitted.Error(),
				Title:   "Forbidden",
				Message: "Only a team-admin of this team or a global admin may delete it.",
			}
		}
	}

	return uc.TeamRepo.Delete(ctx, teamID)
}
