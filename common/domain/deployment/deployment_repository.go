package deployment

import (
	"context"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/google/uuid"
)

// Repository provides an interface for operations related to deployment entities.
//
//go:generate mockgen --destination=../../gen/mock/deployment/deployment_mock.go --package=mock . Repository
type Repository interface {
	Create(ctx context.Context, d *mmodel.Deployment) (*mmodel.Deployment, error)
	Update(ctx context.Context, id uuid.UUID, d *mmodel.Deployment) (*mmodel.Deployment, error)
	Find(ctx context.Context, id uuid.UUID) (*mmodel.Deployment, error)
	FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*mmodel.Deployment, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, page int) ([]*mmodel.Deployment, error)
	ListBySourceModel(ctx context.Context, modelID uuid.UUID) ([]*mmodel.Deployment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
