package command

import (
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/rabbitmq"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
	catalogdomain "github.com/thirdway-labs/modelctl/common/domain/catalog"
	deploymentdomain "github.com/thirdway-labs/modelctl/common/domain/deployment"
	identitydomain "github.com/thirdway-labs/modelctl/common/domain/identity"
)

// UseCase aggregates the repositories and outbound dependencies every write
// operation in the control plane needs, mirroring the teacher's
// command.UseCase aggregate-root pattern.
type UseCase struct {
	ModelRepo           catalogdomain.ModelRepository
	ModelMetadataRepo   catalogdomain.ModelMetadataRepository
	ModelPermissionRepo catalogdomain.ModelPermissionRepository
	ModelDependencyRepo catalogdomain.ModelDependencyRepository
	JobMessageRepo      catalogdomain.JobMessageRepository
	DeploymentRepo      deploymentdomain.Repository
	UserRepo            identitydomain.UserRepository
	ResetCodeRepo       identitydomain.ResetCodeRepository
	TeamRepo            identitydomain.TeamRepository
	RabbitMQRepo        rabbitmq.ProducerRepository
	ArtifactStore       artifact.Store
}
