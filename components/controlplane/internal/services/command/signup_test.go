package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSignup_CreatesUnverifiedUserWithHashedPassword(t *testing.T) {
	repo := newFakeUserRepo()
	uc := &UseCase{UserRepo: repo}

	created, err := uc.Signup(context.Background(), &mmodel.SignupInput{
		Username: "alice",
		Email:    "alice@x.io",
		Password: "supersecret",
	})

	require.NoError(t, err)
	assert.False(t, created.Verified, "a freshly signed-up account must start unverified")
	assert.NotEqual(t, "supersecret", created.PasswordHash, "the password must never be stored in cleartext")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("supersecret")))
}
