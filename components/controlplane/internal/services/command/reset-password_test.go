package command

import (
	"context"
	"testing"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRequestPasswordReset_UnknownEmailSucceedsSilently(t *testing.T) {
	uc := &UseCase{UserRepo: newFakeUserRepo(), ResetCodeRepo: newFakeResetCodeRepo()}

	err := uc.RequestPasswordReset(context.Background(), &mmodel.ResetPasswordInput{Email: "nobody@x.io"})

	assert.NoError(t, err, "the caller must never learn whether an email is registered")
}

func TestCompletePasswordReset_FullFlow(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	resetRepo := newFakeResetCodeRepo()
	uc := &UseCase{UserRepo: userRepo, ResetCodeRepo: resetRepo}

	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	user, err := userRepo.Create(ctx, newTestUser("alice", "alice@x.io", string(hash), true))
	require.NoError(t, err)

	// Simulate the out-of-band code RequestPasswordReset would have sent:
	// write the record through the repo directly so we control the raw value.
	rawCode := "123456"
	userID, _ := uuid.Parse(user.ID)
	digestHashForTest := sha256Hex(rawCode)
	require.NoError(t, resetRepo.Put(ctx, &mmodel.ResetCode{
		UserID:    user.ID,
		CodeHash:  digestHashForTest,
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	err = uc.CompletePasswordReset(ctx, &mmodel.NewPasswordInput{
		Email:       "alice@x.io",
		Code:        rawCode,
		NewPassword: "new-password",
	})
	require.NoError(t, err)

	updated, err := userRepo.Find(ctx, userID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("new-password")))
}

func TestCompletePasswordReset_WrongCodeFails(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	resetRepo := newFakeResetCodeRepo()
	uc := &UseCase{UserRepo: userRepo, ResetCodeRepo: resetRepo}

	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	user, err := userRepo.Create(ctx, newTestUser("alice", "alice@x.io", string(hash), true))
	require.NoError(t, err)

	require.NoError(t, resetRepo.Put(ctx, &mmodel.ResetCode{
		UserID:    user.ID,
		CodeHash:  sha256Hex("123456"),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	err = uc.CompletePasswordReset(ctx, &mmodel.NewPasswordInput{
		Email:       "alice@x.io",
		Code:        "000000",
		NewPassword: "new-password",
	})

	assert.Error(t, err)
}

func TestCompletePasswordReset_ExpiredCodeFails(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	resetRepo := newFakeResetCodeRepo()
	uc := &UseCase{UserRepo: userRepo, ResetCodeRepo: resetRepo}

	hash, _ := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	user, err := userRepo.Create(ctx, newTestUser("alice", "alice@x.io", string(hash), true))
	require.NoError(t, err)

	require.NoError(t, resetRepo.Put(ctx, &mmodel.ResetCode{
		UserID:    user.ID,
		CodeHash:  sha256Hex("123456"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err = uc.CompletePasswordReset(ctx, &mmodel.NewPasswordInput{
		Email:       "alice@x.io",
		Code:        "123456",
		NewPassword: "new-password",
	})

	assert.Error(t, err)
}
