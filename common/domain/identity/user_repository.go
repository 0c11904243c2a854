package identity

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// UserRepository provides an interface for operations related to user accounts.
//
//go:generate mockgen --destination=../../gen/mock/identity/user_mock.go --package=mock . UserRepository
type UserRepository interface {
	Create(ctx context.Context, user *mmodel.User) (*mmodel.User, error)
	Update(ctx context.Context, id uuid.UUID, user *mmodel.User) (*mmodel.User, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.User, error)
	FindByEmail(ctx context.Context, email string) (*mmodel.User, error)
	FindByUsername(ctx context.Context, username string) (*mmodel.User, error)
}

// ResetCodeRepository stores the single active password-reset code per user.
type ResetCodeRepository interface {
	Put(ctx context.Context, code *mmodel.ResetCode) error
	Find(ctx context.Context, userID uuid.UUID) (*mmodel.ResetCode, error)
	MarkUsed(ctx context.Context, userID uuid.UUID) error
}

// TeamRepository provides an interface for operations related to teams.
type TeamRepository interface {
	Create(ctx context.Context, team *mmodel.Team) (*mmodel.Team, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Team, error)
	List(ctx context.Context) ([]*mmodel.Team, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMember(ctx context.Context, m *mmodel.TeamMembership) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	Membership(ctx context.Context, teamID, userID uuid.UUID) (*mmodel.TeamMembership, error)
	ListTeamsForUser(ctx context.Context, userID uuid.UUID) ([]*mmodel.Team, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*mmodel.TeamMembership, error)
}
