package in

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	identitydomain "github.com/thirdway-labs/modelctl/common/domain/identity"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// PrincipalResolver builds a permission.Principal from a session token's
// UserID claim, loading the global-admin flag and team memberships the
// resolver needs. Handlers share one instance rather than each reimplementing
// this lookup.
type PrincipalResolver struct {
	UserRepo identitydomain.UserRepository
	TeamRepo identitydomain.TeamRepository
}

// Resolve turns an authenticated user id into a Principal. An id that no
// longer resolves to a user is treated as the public principal rather than
// an error, since the caller is authenticated but the resolver's job is
// only to report the effective permission.
func (r *PrincipalResolver) Resolve(ctx context.Context, userID uuid.UUID) permission.Principal {
	user, err := r.UserRepo.Find(ctx, userID)
	if err != nil {
		return permission.Principal{}
	}

	teams, err := r.TeamRepo.ListTeamsForUser(ctx, userID)
	if err != nil {
		teams = nil
	}

	teamIDs := make([]uuid.UUID, 0, len(teams))

	for _, t := range teams {
		if id, err := uuid.Parse(t.ID); err == nil {
			teamIDs = append(teamIDs, id)
		}
	}

	return permission.Principal{
		UserID:        userID,
		IsGlobalAdmin: user.GlobalAdmin,
		TeamIDs:       teamIDs,
	}
}

// Membership reports the caller's TeamMembership on a model's team, if any,
// used to decide protected-access visibility.
func (r *PrincipalResolver) Membership(ctx context.Context, teamID *string, userID uuid.UUID) *mmodel.TeamMembership {
	if teamID == nil {
		return nil
	}

	tid, err := uuid.Parse(*teamID)
	if err != nil {
		return nil
	}

	m, err := r.TeamRepo.Membership(ctx, tid, userID)
	if err != nil {
		return nil
	}

	return m
}
