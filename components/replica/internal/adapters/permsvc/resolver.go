// Package permsvc resolves a caller's effective permission on the model a
// replica serves, backed by the same catalog/identity tables the control
// plane uses, and cached per §5's "permission cache in a deployed replica is
// shared, mutex-guarded, with per-entry TTL of a few minutes; expired
// entries are lazily evicted."
package permsvc

import (
	"context"
	"sync"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	catalogdomain "github.com/thirdway-labs/modelctl/common/domain/catalog"
	identitydomain "github.com/thirdway-labs/modelctl/common/domain/identity"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
)

// Resolver computes and caches a caller's effective permission on a fixed
// source model, the one this replica deployment was built from.
type Resolver struct {
	ModelRepo      catalogdomain.ModelRepository
	PermissionRepo catalogdomain.ModelPermissionRepository
	UserRepo       identitydomain.UserRepository
	TeamRepo       identitydomain.TeamRepository
	SourceModelID  uuid.UUID
	TTL            time.Duration

	mu    sync.Mutex
	cache map[uuid.UUID]cacheEntry
}

type cacheEntry struct {
	permission mmodel.Permission
	expiresAt  time.Time
}

// NewResolver returns a Resolver with the default 5 minute TTL when ttl <= 0.
func NewResolver(modelRepo catalogdomain.ModelRepository, permRepo catalogdomain.ModelPermissionRepository, userRepo identitydomain.UserRepository, teamRepo identitydomain.TeamRepository, sourceModelID uuid.UUID, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &Resolver{
		ModelRepo:      modelRepo,
		PermissionRepo: permRepo,
		UserRepo:       userRepo,
		TeamRepo:       teamRepo,
		SourceModelID:  sourceModelID,
		TTL:            ttl,
		cache:          make(map[uuid.UUID]cacheEntry),
	}
}

// Resolve returns the caller's effective permission, consulting the cache
// first and lazily evicting expired entries it encounters along the way.
func (r *Resolver) Resolve(ctx context.Context, userID uuid.UUID) (mmodel.Permission, error) {
	now := time.Now()

	r.mu.Lock()
	entry, ok := r.cache[userID]
	if ok && entry.expiresAt.After(now) {
		r.mu.Unlock()
		return entry.permission, nil
	}

	if ok {
		delete(r.cache, userID)
	}
	r.mu.Unlock()

	perm, err := r.resolveUncached(ctx, userID)
	if err != nil {
		return mmodel.PermissionNone, err
	}

	r.mu.Lock()
	r.cache[userID] = cacheEntry{permission: perm, expiresAt: now.Add(r.TTL)}
	r.mu.Unlock()

	return perm, nil
}

func (r *Resolver) resolveUncached(ctx context.Context, userID uuid.UUID) (mmodel.Permission, error) {
	model, err := r.ModelRepo.Find(ctx, r.SourceModelID)
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

	explicit, err := r.PermissionRepo.Find(ctx, r.SourceModelID, userID)
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
