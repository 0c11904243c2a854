package query

import (
	"context"
	"errors"
	"testing"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeployStatus_OwnerCanRead(t *testing.T) {
	repo := newFakeDeploymentRepo()
	owner := uuid.New()
	deploymentID := uuid.New()
	repo.put(&mmodel.Deployment{ID: deploymentID.String(), OwnerUserID: owner.String()})
	uc := &UseCase{DeploymentRepo: repo}

	d, err := uc.DeployStatus(context.Background(), permission.Principal{UserID: owner}, deploymentID)

	require.NoError(t, err)
	assert.Equal(t, deploymentID.String(), d.ID)
}

func TestDeployStatus_GlobalAdminCanRead(t *testing.T) {
	repo := newFakeDeploymentRepo()
	owner := uuid.New()
	deploymentID := uuid.New()
	repo.put(&mmodel.Deployment{ID: deploymentID.String(), OwnerUserID: owner.String()})
	uc := &UseCase{DeploymentRepo: repo}

	_, err := uc.DeployStatus(context.Background(), permission.Principal{UserID: uuid.New(), IsGlobalAdmin: true}, deploymentID)

	require.NoError(t, err)
}

func TestDeployStatus_StrangerSeesNotFound(t *testing.T) {
	repo := newFakeDeploymentRepo()
	owner := uuid.New()
	deploymentID := uuid.New()
	repo.put(&mmodel.Deployment{ID: deploymentID.String(), OwnerUserID: owner.String()})
	uc := &UseCase{DeploymentRepo: repo}

	_, err := uc.DeployStatus(context.Background(), permission.Principal{UserID: uuid.New()}, deploymentID)

	require.Error(t, err)
	var notFound common.EntityNotFoundError
	assert.True(t, errors.As(err, &notFound))
}
