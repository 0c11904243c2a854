package command

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"golang.org/x/crypto/bcrypt"
)

// Signup creates a new, unverified user account with a bcrypt-hashed password.
func (uc *UseCase) Signup(ctx context.Context, in *mmodel.SignupInput) (*mmodel.User, error) {
	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.signup")
	defer span.End()

	logger.Infof("creating account for username %s", in.Username)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &mmodel.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Verified:     false,
	}

	created, err := uc.UserRepo.Create(ctx, user)
	if err != nil {
		logger.Errorf("failed to create user: %v", err)

		return nil, err
	}

	return created, nil
}
