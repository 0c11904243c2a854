package query

import (
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
	catalogdomain "github.com/thirdway-labs/modelctl/common/domain/catalog"
	deploymentdomain "github.com/thirdway-labs/modelctl/common/domain/deployment"
	identitydomain "github.com/thirdway-labs/modelctl/common/domain/identity"
)

// UseCase aggregates the repositories every read-only operation in the
// control plane needs. It never touches RabbitMQ or issues writes; the
// command.UseCase is its counterpart for mutations.
type UseCase struct {
	ModelRepo           catalogdomain.ModelRepository
	ModelMetadataRepo   catalogdomain.ModelMetadataRepository
	ModelPermissionRepo catalogdomain.ModelPermissionRepository
	JobMessageRepo      catalogdomain.JobMessageRepository
	DeploymentRepo      deploymentdomain.Repository
	UserRepo            identitydomain.UserRepository
	TeamRepo            identitydomain.TeamRepository
	ArtifactStore       artifact.Store
}
