// Package permsvc resolves a caller's effective permission on an arbitrary
// model, for the two cachesvc decisions that need it: whether a caller may
// mint a cache-insert token for a given model_id, and whether a caller may
// invalidate that model's cache. Unlike
// components/replica's permsvc.Resolver, which is fixed to the one model a
// replica deployment serves and worth TTL-caching, cachesvc resolves against
// a different model on every call, so there is nothing to cache.
package permsvc

import (
	"context"

	catalogdomain "github.com/thirdway-labs/modelctl/common/domain/catalog"
	identitydomain "github.com/thirdway-labs/modelctl/common/domain/identity"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// Resolver computes a caller's effective permission on a model looked up
// fresh on every call.
type Resolver struct {
	ModelRepo      catalogdomain.ModelRepository
	PermissionRepo catalogdomain.ModelPermissionRepository
	UserRepo       identitydomain.UserRepository
	TeamRepo       identitydomain.TeamRepository
}

// NewResolver wires a Resolver against the given repositories.
func NewResolver(modelRepo catalogdomain.ModelRepository, permRepo catalogdomain.ModelPermissionRepository, userRepo identitydomain.UserRepository, teamRepo identitydomain.TeamRepository) *Resolver {
	return &Resolver{ModelRepo: modelRepo, PermissionRepo: permRepo, UserRepo: userRepo, TeamRepo: teamRepo}
}

// Resolve returns the caller's effective permission on modelID.
func (r *Resolver) Resolve(ctx context.Context, userID, modelID uuid.UUID) (mmodel.Permission, error) {
	model, err := r.ModelRepo.Find(ctx, modelID)
	if err != nil {
		return mmodel.PermissionNone, err
	}

	if userID == uuid.Nil {
		return permission.Resolve(permission.Principal{}, model, nil, nil), nil
	}

	user, err := r.UserRepo.Find(ctx, userID)
	if err != nil {
		return permission.Resolve(permission.Principal{}, model, nil, nil), nil
	}

	explicit, err := r.PermissionRepo.Find(ctx, modelID, userID)
	if err != nil {
		explicit = nil
	}

	var membership *mmodel.TeamMembership

	var teamIDs []uuid.UUID

	if model.TeamID != nil {
		if teamID, err := uuid.Parse(*model.TeamID); err == nil {
			if m, err := r.TeamRepo.Membership(ctx, teamID, userID); err == nil {
				membership = m
				teamIDs = append(teamIDs, teamID)
			}
		}
	}

	caller := permission.Principal{UserID: userID, IsGlobalAdmin: user.GlobalAdmin, TeamIDs: teamIDs}

	return permission.Resolve(caller, model, explicit, membership), nil
}
