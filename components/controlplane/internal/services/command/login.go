package command

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"golang.org/x/crypto/bcrypt"
)

// SessionTokenTTL is how long a session bearer token is valid for.
const SessionTokenTTL = 24 * time.Hour

// Login verifies a username/password pair and issues a session token.
func (uc *UseCase) Login(ctx context.Context, username, password string, jwtSecret []byte) (string, error) {
	logger := common.NewLoggerFromContext(ctx)

	user, err := uc.UserRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", common.UnauthorizedError{
			Code:    cn.ErrInvalidCredentials.Error(),
			Title:   "Invalid Credentials",
			Message: "Username or password is incorrect.",
		}
	}

	if user.PasswordHash == "" {
		return "", common.UnauthorizedError{
			Code:    cn.ErrInvalidCredentials.Error(),
			Title:   "Invalid Credentials",
			Message: "This account has no password credential; sign in via the federated provider instead.",
		}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Debugf("password mismatch for user %s", username)

		return "", common.UnauthorizedError{
			Code:    cn.ErrInvalidCredentials.Error(),
			Title:   "Invalid Credentials",
			Message: "Username or password is incorrect.",
		}
	}

	if !user.Verified {
		return "", common.UnauthorizedError{
			Code:    cn.ErrUnverifiedAccount.Error(),
			Title:   "Unverified Account",
			Message: "This account's email address has not been verified yet.",
		}
	}

	token, err := httpcommon.IssueToken(jwtSecret, httpcommon.TokenKindSession, time.Now().Add(SessionTokenTTL), func(c *httpcommon.Claims) {
		c.UserID = user.ID
	})
	if err != nil {
		return "", err
	}

	return token, nil
}
