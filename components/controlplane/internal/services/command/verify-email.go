package command

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/google/uuid"
)

// VerificationTokenTTL is how long an issued email-verification token remains valid.
const VerificationTokenTTL = 48 * time.Hour

// IssueVerificationToken mints the stateless token delivered to a newly
// created account out of band (e.g. by email). Unlike the password-reset
// code, no server-side record is kept; the JWT signature and expiry are the
// only state.
func (uc *UseCase) IssueVerificationToken(userID uuid.UUID, jwtSecret []byte) (string, error) {
	return httpcommon.IssueToken(jwtSecret, httpcommon.TokenKindVerify, time.Now().Add(VerificationTokenTTL), func(c *httpcommon.Claims) {
		c.UserID = userID.String()
	})
}

// VerifyEmail marks the account named by a valid, unexpired verification
// token as verified. Re-verifying an already-verified account is a no-op.
func (uc *UseCase) VerifyEmail(ctx context.Context, claims *httpcommon.Claims) (*mmodel.User, error) {
	tracer := common.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "command.verify_email")
	defer span.End()

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, common.UnauthorizedError{
			Code:    cn.ErrInvalidCredentials.Error(),
			Title:   "Invalid Token",
			Message: "The verification token does not reference a valid account.",
		}
	}

	user, err := uc.UserRepo.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Verified {
		return user, nil
	}

	user.Verified = true

	return uc.UserRepo.Update(ctx, userID, user)
}
