package command

import (
	"context"
	"testing"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/services/permission"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateModelPermission_OwnerCanGrant(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	permRepo := newFakeModelPermissionRepo()
	userRepo := newFakeUserRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelPermissionRepo: permRepo, UserRepo: userRepo}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m"})
	require.NoError(t, err)

	grantee, err := userRepo.Create(ctx, newTestUser("bob", "bob@x.io", "hash", true))
	require.NoError(t, err)

	perm, err := uc.UpdateModelPermission(ctx, permission.Principal{UserID: owner}, &mmodel.UpdateModelPermissionInput{
		ModelID:    model.ID,
		Email:      "bob@x.io",
		Permission: mmodel.PermissionWrite,
	})

	require.NoError(t, err)
	assert.Equal(t, grantee.ID, perm.UserID)
	assert.Equal(t, mmodel.PermissionWrite, perm.Permission)
}

func TestUpdateModelPermission_NonOwnerForbidden(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelPermissionRepo: newFakeModelPermissionRepo(), UserRepo: newFakeUserRepo()}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m"})
	require.NoError(t, err)

	_, err = uc.UpdateModelPermission(ctx, permission.Principal{UserID: uuid.New()}, &mmodel.UpdateModelPermissionInput{
		ModelID:    model.ID,
		Email:      "bob@x.io",
		Permission: mmodel.PermissionWrite,
	})

	assert.Error(t, err)
}

func TestUpdateModelPermission_UnknownGranteeFails(t *testing.T) {
	ctx := context.Background()
	modelRepo := newFakeModelRepo()
	uc := &UseCase{ModelRepo: modelRepo, ModelPermissionRepo: newFakeModelPermissionRepo(), UserRepo: newFakeUserRepo()}
	owner := uuid.New()

	model, err := modelRepo.Create(ctx, &mmodel.Model{OwnerUserID: owner.String(), Name: "m"})
	require.NoError(t, err)

	_, err = uc.UpdateModelPermission(ctx, permission.Principal{UserID: owner}, &mmodel.UpdateModelPermissionInput{
		ModelID:    model.ID,
		Email:      "nobody@x.io",
		Permission: mmodel.PermissionWrite,
	})

	assert.Error(t, err)
}
