package query

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// UserInfo returns a user's profile together with the teams they belong to.
type UserInfo struct {
	User  *mmodel.User
	Teams []*mmodel.Team
}

// GetUserInfo backs GET /user/info for the caller named in their session token.
func (uc *UseCase) GetUserInfo(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "query.get_user_info")
	defer span.End()

	user, err := uc.UserRepo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	teams, err := uc.TeamRepo.ListTeamsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserInfo{User: user, Teams: teams}, nil
}
