package command

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ResetCodeTTL is how long an issued reset code remains valid.
const ResetCodeTTL = 1 * time.Hour

// RequestPasswordReset issues a new single-use reset code for the account
// holding email, replacing any code already outstanding. It never reports
// whether the email is registered; callers always see a generic success.
func (uc *UseCase) RequestPasswordReset(ctx context.Context, in *mmodel.ResetPasswordInput) error {
	logger := common.NewLoggerFromContext(ctx)

	user, err := uc.UserRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		logger.Debugf("password reset requested for unknown email")

		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}

	digest := sha256.Sum256(raw)

	code := &mmodel.ResetCode{
		UserID:    user.ID,
		CodeHash:  hex.EncodeToString(digest[:]),
		ExpiresAt: time.Now().Add(ResetCodeTTL),
		Used:      false,
	}

	if err := uc.ResetCodeRepo.Put(ctx, code); err != nil {
		return err
	}

	// The raw (unhashed) code is delivered out of band, e.g. by email; this
	// command only persists its digest.
	logger.Infof("issued password reset code for user %s", user.ID)

	return nil
}

// CompletePasswordReset verifies a reset code and sets a new password.
func (uc *UseCase) CompletePasswordReset(ctx context.Context, in *mmodel.NewPasswordInput) error {
	user, err := uc.UserRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return common.UnauthorizedError{
			Code:    cn.ErrInvalidResetCode.Error(),
			Title:   "Invalid Reset Code",
			Message: "The reset code is invalid or has expired.",
		}
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return err
	}

	stored, err := uc.ResetCodeRepo.Find(ctx, userID)
	if err != nil {
		return err
	}

	if stored == nil || stored.Used {
		return common.UnauthorizedError{
			Code:    cn.ErrInvalidResetCode.Error(),
			Title:   "Invalid Reset Code",
			Message: "The reset code is invalid or has expired.",
		}
	}

	if time.Now().After(stored.ExpiresAt) {
		return common.UnauthorizedError{
			Code:    cn.ErrResetCodeExpired.Error(),
			Title:   "Reset Code Expired",
			Message: "The reset code has expired; request a new one.",
		}
	}

	digest := sha256.Sum256([]byte(in.Code))
	if hex.EncodeToString(digest[:]) != stored.CodeHash {
		return common.UnauthorizedError{
			Code:    cn.ErrInvalidResetCode.Error(),
			Title:   "Invalid Reset Code",
			Message: "The reset code is invalid or has expired.",
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)

	if _, err := uc.UserRepo.Update(ctx, userID, user); err != nil {
		return err
	}

	return uc.ResetCodeRepo.MarkUsed(ctx, userID)
}
