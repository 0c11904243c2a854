package query

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// ListTeams backs GET /team/list.
func (uc *UseCase) ListTeams(ctx context.Context) ([]*mmodel.Team, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_teams")
	defer span.End()

	return uc.TeamRepo.List(ctx)
}

// TeamUser pairs a team membership row with the member's profile.
type TeamUser struct {
	User *mmodel.User
	Role mmodel.TeamRole
}

// ListTeamUsers backs GET /team/team-users?team_id.
func (uc *UseCase) ListTeamUsers(ctx context.Context, teamID uuid.UUID) ([]*TeamUser, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.list_team_users")
	defer span.End()

	if _, err := uc.TeamRepo.Find(ctx, teamID); err != nil {
		return nil, err
	}

	members, err := uc.TeamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	users := make([]*TeamUser, 0, len(members))

	for _, m := range members {
		userID, err := uuid.Parse(m.UserID)
		if err != nil {
			continue
		}

		user, err := uc.UserRepo.Find(ctx, userID)
		if err != nil {
			return nil, err
		}

		users = append(users, &TeamUser{User: user, Role: m.Role})
	}

	return users, nil
}
