package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTeamAdmin_PromotesExistingMember(t *testing.T) {
	ctx := context.Background()
	teamRepo := newFakeTeamRepo()
	uc := &UseCase{TeamRepo: teamRepo}

	team, err := teamRepo.Create(ctx, &mmodel.Team{Name: "ml"})
	require.NoError(t, err)
	teamID, _ := uuid.Parse(team.ID)

	admin := uuid.New()
	member := uuid.New()
	require.NoError(t, teamRepo.AddMember(ctx, &mmodel.TeamMembership{TeamID: team.ID, UserID: admin.String(), Role: mmodel.TeamRoleTeamAdmin}))
	require.NoError(t, teamRepo.AddMember(ctx, &mmodel.TeamMembership{TeamID: team.ID, UserID: member.String(), Role: mmodel.TeamRoleMember}))

	err = uc.AssignTeamAdmin(ctx, admin, false, teamID, member)

	require.NoError(t, err)
	membership, err := teamRepo.Membership(ctx, teamID, member)
	require.NoError(t, err)
	assert.Equal(t, mmodel.TeamRoleTeamAdmin, membership.Role)
}

func TestAssignTeamAdmin_NonMemberTargetFails(t *testing.T) {
	ctx := context.Background()
	teamRepo := newFakeTeamRepo()
	uc := &UseCase{TeamRepo: teamRepo}

	team, err := teamRepo.Create(ctx, &mmodel.Team{Name: "ml"})
	require.NoError(t, err)
	teamID, _ := uuid.Parse(team.ID)

	err = uc.AssignTeamAdmin(ctx, uuid.New(), true, teamID, uuid.New())

	assert.Error(t, err)
}

func TestDeleteTeam_NonAdminIsForbidden(t *testing.T) {
	ctx := context.Background()
	teamRepo := newFakeTeamRepo()
	uc := &UseCase{TeamRepo: teamRepo}

	team, err := teamRepo.Create(ctx, &mmodel.Team{Name: "ml"})
	require.NoError(t, err)
	teamID, _ := uuid.Parse(team.ID)

	err = uc.DeleteTeam(ctx, uuid.New(), false, teamID)

	assert.Error(t, err)
}

func TestDeleteTeam_GlobalAdminSucceeds(t *testing.T) {
	ctx := context.Background()
	teamRepo := newFakeTeamRepo()
	uc := &UseCase{TeamRepo: teamRepo}

	team, err := teamRepo.Create(ctx, &mmodel.Team{Name: "ml"})
	require.NoError(t, err)
	teamID, _ := uuid.Parse(team.ID)

	err = uc.DeleteTeam(ctx, uuid.New(), true, teamID)

	require.NoError(t, err)
	_, ok := teamRepo.byID[team.ID]
	assert.False(t, ok)
}
