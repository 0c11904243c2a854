package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// CreateTeam creates a team and enrolls the creator as its first team-admin.
func (uc *UseCase) CreateTeam(ctx context.Context, creatorID uuid.UUID, in *mmodel.CreateTeamInput) (*mmodel.Team, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.create_team")
	defer span.End()

	team := &mmodel.Team{Name: in.Name}

	created, err := uc.TeamRepo.Create(ctx, team)
	if err != nil {
		return nil, err
	}

	teamID, err := uuid.Parse(created.ID)
	if err != nil {
		return nil, err
	}

	membership := &mmodel.TeamMembership{
		UserID: creatorID.String(),
		TeamID: teamID.String(),
		Role:   mmodel.TeamRoleTeamAdmin,
	}

	if err := uc.TeamRepo.AddMember(ctx, membership); err != nil {
		return nil, err
	}

	return created, nil
}

// AddUserToTeam enrolls an existing user in a team by email. Only callable
// by a team-admin of the target team or a global admin.
func (uc *UseCase) AddUserToTeam(ctx context.Context, caller uuid.UUID, callerIsGlobalAdmin bool, in *mmodel.AddUserToTeamInput) error {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.add_user_to_team")
	defer span.End()

	teamID, err := uuid.Parse(in.TeamID)
	if err != nil {
		return common.ValidationError{
			Code:    cn.ErrMissingFieldsInRequest.Error(),
			Title:   "Invalid Team",
			Message: "teamId is not a valid identifier.",
		}
	}

	if !callerIsGlobalAdmin {
		membership, err := uc.TeamRepo.Membership(ctx, teamID, caller)
		if err != nil {
			return err
		}

		if membership == nil || membership.Role != mmodel.TeamRoleTeamAdmin {
			return common.ForbiddenError{
				Code:    cn.ErrActionNotPermitted.Error(),
				Title:   "Forbidden",
				Message: "Only a team-admin of this team or a global admin may add members.",
			}
		}
	}

	user, err := uc.UserRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	return uc.TeamRepo.AddMember(ctx, &mmodel.TeamMembership{
		UserID: user.ID,
		TeamID: in.TeamID,
		Role:   in.Role,
	})
}
