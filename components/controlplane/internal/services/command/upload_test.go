package command

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	httpcommon "github.com/thirdway-labs/modelctl/common/net/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadTokenTTL_FloorAndCap(t *testing.T) {
	assert.Equal(t, UploadTokenMinTTL+time.Second, uploadTokenTTL(1))
	assert.Equal(t, UploadTokenMaxTTL, uploadTokenTTL(1<<40), "a very large declared size must be capped")
}

func TestUploadTokenTTL_ScalesMonotonicallyWithSize(t *testing.T) {
	small := uploadTokenTTL(1_000_000)
	large := uploadTokenTTL(10_000_000)

	assert.Less(t, small, large)
	assert.GreaterOrEqual(t, small, UploadTokenMinTTL)
}

func TestIssueUploadToken_ReservesModelAndFailsOnDuplicateName(t *testing.T) {
	ctx := context.Background()
	uc := &UseCase{ModelRepo: newFakeModelRepo(), ArtifactStore: newFakeArtifactStore()}
	owner := uuid.New()

	token, model, err := uc.IssueUploadToken(ctx, owner, "foo", 1024, testSecret)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, mmodel.StateNotStarted, model.TrainState)

	_, _, err = uc.IssueUploadToken(ctx, owner, "foo", 1024, testSecret)
	assert.Error(t, err, "issuing a second token for the same (owner, name) pair must fail")
}

func TestUploadChunkThenCommit_TransitionsModelToComplete(t *testing.T) {
	ctx := context.Background()
	uc := &UseCase{ModelRepo: newFakeModelRepo(), ArtifactStore: newFakeArtifactStore()}
	owner := uuid.New()

	token, model, err := uc.IssueUploadToken(ctx, owner, "foo", 1024, testSecret)
	require.NoError(t, err)

	claims := &httpcommon.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)
	assert.Equal(t, model.ID, claims.Scope)

	require.NoError(t, uc.UploadChunk(ctx, claims, 1, bytes.NewReader([]byte("data"))))

	updated, err := uc.UploadCommit(ctx, claims, 1, &mmodel.UploadCommitInput{
		Kind:        "ndb",
		AccessLevel: mmodel.AccessPublic,
	})

	require.NoError(t, err)
	assert.Equal(t, mmodel.StateComplete, updated.TrainState)
	assert.NotNil(t, updated.PublishedAt)
}

func TestUploadCommit_ProtectedWithoutTeamFails(t *testing.T) {
	ctx := context.Background()
	uc := &UseCase{ModelRepo: newFakeModelRepo(), ArtifactStore: newFakeArtifactStore()}
	owner := uuid.New()

	token, _, err := uc.IssueUploadToken(ctx, owner, "foo", 1024, testSecret)
	require.NoError(t, err)

	claims := &httpcommon.Claims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)

	require.NoError(t, uc.UploadChunk(ctx, claims, 1, bytes.NewReader([]byte("data"))))

	_, err = uc.UploadCommit(ctx, claims, 1, &mmodel.UploadCommitInput{
		Kind:        "ndb",
		AccessLevel: mmodel.AccessProtected,
	})

	assert.Error(t, err)
}
