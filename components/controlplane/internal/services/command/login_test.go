package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("test-signing-secret-at-least-32-bytes-long")

func newTestUser(username, email, passwordHash string, verified bool) *mmodel.User {
	return &mmodel.User{Username: username, Email: email, PasswordHash: passwordHash, Verified: verified}
}

func TestLogin_SucceedsForVerifiedUserWithCorrectPassword(t *testing.T) {
	repo := newFakeUserRepo()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), newTestUser("alice", "alice@x.io", string(hash), true))
	require.NoError(t, err)

	uc := &UseCase{UserRepo: repo}

	token, err := uc.Login(context.Background(), "alice", "correct-password", testSecret)

	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims := &httpcommon.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)
	assert.Equal(t, httpcommon.TokenKindSession, claims.Kind)
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	repo := newFakeUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	_, _ = repo.Create(context.Background(), newTestUser("alice", "alice@x.io", string(hash), true))

	uc := &UseCase{UserRepo: repo}

	_, err := uc.Login(context.Background(), "alice", "wrong-password", testSecret)

	require.Error(t, err)
	var unauthorized common.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestLogin_UnverifiedAccountIsUnauthorized(t *testing.T) {
	repo := newFakeUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	_, _ = repo.Create(context.Background(), newTestUser("alice", "alice@x.io", string(hash), false))

	uc := &UseCase{UserRepo: repo}

	_, err := uc.Login(context.Background(), "alice", "correct-password", testSecret)

	require.Error(t, err)
	var unauthorized common.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestLogin_UnknownUsernameIsUnauthorized(t *testing.T) {
	uc := &UseCase{UserRepo: newFakeUserRepo()}

	_, err := uc.Login(context.Background(), "nobody", "whatever", testSecret)

	require.Error(t, err)
	var unauthorized common.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}
