package mmodel

import "time"

// SignupInput is the payload accepted by the signup endpoint.
type SignupInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

// LoginInput is the payload accepted by the login endpoint.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewPasswordInput is the payload accepted by the reset-password completion endpoint.
type NewPasswordInput struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=256"`
}

// ResetPasswordInput is the payload accepted by the reset-password request endpoint.
type ResetPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// User is a struct designed to encapsulate the response payload for a user.
// Username matches `[A-Za-z0-9_-]+` and is unique, as is Email; exactly one
// of PasswordHash or FederatedID is set.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Verified     bool      `json:"verified"`
	GlobalAdmin  bool      `json:"globalAdmin"`
	PasswordHash string    `json:"-"`
	FederatedID  *string   `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ResetCode records a hashed, time-limited, single-use password reset code.
// A user may hold at most one active code at a time.
type ResetCode struct {
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	Used      bool
}

// Team is a struct designed to encapsulate the response payload for a team.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// TeamRole is the role a user holds within a team.
type TeamRole string

const (
	TeamRoleMember    TeamRole = "member"
	TeamRoleTeamAdmin TeamRole = "team-admin"
)

// TeamMembership links a user to a team with a role. (User, Team) is unique.
type TeamMembership struct {
	UserID string   `json:"userId"`
	TeamID string   `json:"teamId"`
	Role   TeamRole `json:"role"`
}

// CreateTeamInput is the payload accepted by the create-team endpoint.
type CreateTeamInput struct {
	Name string `json:"name" validate:"required,max=128"`
}

// AddUserToTeamInput is the payload accepted by the add-user-to-team endpoint.
type AddUserToTeamInput struct {
	Email  string   `json:"email" validate:"required,email"`
	TeamID string   `json:"teamId" validate:"required,uuid"`
	Role   TeamRole `json:"role" validate:"required,oneof=member team-admin"`
}
