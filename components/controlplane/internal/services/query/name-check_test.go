package query

import (
	"context"
	"errors"
	"testing"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameCheck_AvailableWhenNoModelExists(t *testing.T) {
	uc := &UseCase{ModelRepo: newFakeModelRepo()}

	available, err := uc.NameCheck(context.Background(), uuid.New(), "fresh-name")

	require.NoError(t, err)
	assert.True(t, available)
}

func TestNameCheck_TakenWhenModelExists(t *testing.T) {
	repo := newFakeModelRepo()
	owner := uuid.New()
	repo.put(&mmodel.Model{ID: uuid.New().String(), OwnerUserID: owner.String(), Name: "taken"})
	uc := &UseCase{ModelRepo: repo}

	available, err := uc.NameCheck(context.Background(), owner, "taken")

	require.NoError(t, err)
	assert.False(t, available)
}

func TestNameCheck_PropagatesUnrelatedErrors(t *testing.T) {
	uc := &UseCase{ModelRepo: &explodingModelRepo{}}

	_, err := uc.NameCheck(context.Background(), uuid.New(), "whatever")

	require.Error(t, err)
	var notFound common.EntityNotFoundError
	assert.False(t, errors.As(err, &notFound), "an unrelated error must not be mistaken for not-found")
}

// explodingModelRepo embeds fakeModelRepo so only FindByOwnerAndName needs
// overriding to return a non-not-found error.
type explodingModelRepo struct {
	fakeModelRepo
}

func (r *explodingModelRepo) FindByOwnerAndName(_ context.Context, _ uuid.UUID, _ string) (*mmodel.Model, error) {
	return nil, errors.New("connection refused")
}
