package catalog

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// ModelRepository provides an interface for operations related to model catalog entries.
//
//go:generate mockgen --destination=../../gen/mock/catalog/model_mock.go --package=mock . ModelRepository
type ModelRepository interface {
	Create(ctx context.Context, model *mmodel.Model) (*mmodel.Model, error)
	Update(ctx context.Context, id uuid.UUID, model *mmodel.Model) (*mmodel.Model, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Model, error)
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*mmodel.Model, error)
	ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error)
	ListPublic(ctx context.Context, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ModelMetadataRepository stores the free-form general/train metadata merged
// in from the runner's terminal-state callback.
type ModelMetadataRepository interface {
	Upsert(ctx context.Context, meta *mmodel.ModelMetadata) error
	Find(ctx context.Context, modelID uuid.UUID) (*mmodel.ModelMetadata, error)
}

// ModelPermissionRepository manages explicit per-user overrides on a model.
type ModelPermissionRepository interface {
	Upsert(ctx context.Context, perm *mmodel.ModelPermission) error
	Find(ctx context.Context, modelID, userID uuid.UUID) (*mmodel.ModelPermission, error)
	ListByModel(ctx context.Context, modelID uuid.UUID) ([]*mmodel.ModelPermission, error)
}

// ModelDependencyRepository tracks the (model, depends-on) edges used to
// reject cyclic parent-model assignments.
type ModelDependencyRepository interface {
	Add(ctx context.Context, modelID, dependsOnID uuid.UUID) error
	Descendants(ctx context.Context, modelID uuid.UUID) ([]uuid.UUID, error)
}

// JobMessageRepository appends and lists the diagnostic lines attached to a
// model's job history.
type JobMessageRepository interface {
	Append(ctx context.Context, msg *mmodel.JobMessage) error
	ListByModel(ctx context.Context, modelID uuid.UUID, limit, page int) ([]*mmodel.JobMessage, error)
}
