package permission

import (
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// Principal is the caller a permission decision is made for. The zero value
// (no ID, IsGlobalAdmin false, empty TeamIDs) is the synthetic public
// principal used for unauthenticated requests.
type Principal struct {
	UserID        uuid.UUID
	IsGlobalAdmin bool
	TeamIDs       []uuid.UUID
}

func (p Principal) isMemberOf(teamID *string) bool {
	if teamID == nil {
		return false
	}

	want, err := uuid.Parse(*teamID)
	if err != nil {
		return false
	}

	for _, t := range p.TeamIDs {
		if t == want {
			return true
		}
	}

	return false
}

// Resolve is the pure function over (caller, model) returning the effective
// permission. Explicit grants and ownership are the two floors: an explicit
// read on a model the caller owns still yields write, since ownership is
// never weakened by a grant.
func Resolve(caller Principal, model *mmodel.Model, explicit *mmodel.ModelPermission, membership *mmodel.TeamMembership) mmodel.Permission {
	isOwner := caller.UserID != uuid.Nil && caller.UserID.String() == model.OwnerUserID

	if caller.IsGlobalAdmin || isOwner {
		return mmodel.PermissionWrite
	}

	if explicit != nil && explicit.Permission == mmodel.PermissionWrite {
		return mmodel.PermissionWrite
	}

	switch model.Access {
	case mmodel.AccessProtected:
		if membership != nil {
			if membership.Role == mmodel.TeamRoleTeamAdmin {
				return mmodel.PermissionWrite
			}

			return maxPermission(model.DefaultPermission, explicitOrNone(explicit))
		}
	case mmodel.AccessPublic:
		return maxPermission(model.DefaultPermission, explicitOrNone(explicit))
	}

	return explicitOrNone(explicit)
}

func explicitOrNone(explicit *mmodel.ModelPermission) mmodel.Permission {
	if explicit == nil {
		return mmodel.PermissionNone
	}

	return explicit.Permission
}

func maxPermission(a, b mmodel.Permission) mmodel.Permission {
	if a == mmodel.PermissionWrite || b == mmodel.PermissionWrite {
		return mmodel.PermissionWrite
	}

	if a == mmodel.PermissionRead || b == mmodel.PermissionRead {
		return mmodel.PermissionRead
	}

	return mmodel.PermissionNone
}

// IsVisible reports whether Resolve grants caller any permission on model.
// Unlike the catalog adapter's ListVisible query, it counts a global admin
// as seeing every model.
func IsVisible(caller Principal, model *mmodel.Model, explicit *mmodel.ModelPermission, membership *mmodel.TeamMembership) bool {
	return Resolve(caller, model, explicit, membership) != mmodel.PermissionNone
}
