// Package bootstrap wires the control plane's concrete adapters behind the
// domain interfaces and constructs the Fiber app, following the teacher's
// components/*/internal/bootstrap layout.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	"github.com/thirdway-labs/modelctl/common/mrabbitmq"
	"github.com/thirdway-labs/modelctl/common/mzap"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/artifact/local"
	s3store "github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/artifact/s3"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/http/in"
	catalogpg "github.com/thirdway-labs/modelctl/common/adapters/postgres/catalog"
	deploymentpg "github.com/thirdway-labs/modelctl/common/adapters/postgres/deployment"
	identitypg "github.com/thirdway-labs/modelctl/common/adapters/postgres/identity"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/rabbitmq"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/domain/artifact"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/command"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/services/query"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config is the top level configuration struct for the control plane,
// populated from environment variables the way the teacher's
// components/*/internal/bootstrap/config.go does via the "env" struct tag.
type Config struct {
	EnvName       string `env:"ENV_NAME"`
	ServerAddress string `env:"SERVER_ADDRESS"`
	LogLevel      string `env:"LOG_LEVEL"`

	OtelServiceName    string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName    string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv  string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`

	PrimaryDBSource string `env:"DB_PRIMARY_URI"`
	ReplicaDBSource string `env:"DB_REPLICA_URI"`
	PrimaryDBName   string `env:"DB_NAME"`
	MigrationsPath  string `env:"DB_MIGRATIONS_PATH"`

	RabbitMQURI string `env:"RABBITMQ_URI"`

	JWTSecret string `env:"JWT_SIGNING_SECRET"`

	StorageBackend string `env:"STORAGE_BACKEND"` // "local" or "s3"
	ArtifactRoot   string `env:"ARTIFACT_BASE_DIR"`
	S3Bucket       string `env:"ARTIFACT_S3_BUCKET"`

	PublicEndpoint string `env:"PUBLIC_ENDPOINT"` // loaded but not read anywhere in the control plane
}

// Options contains optional dependencies a caller (e.g. a test harness) may inject.
type Options struct {
	Logger mlog.Logger
}

// InitServers initializes the control plane with configuration read from
// the environment.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions initializes the control plane, optionally
// overriding dependencies via opts.
func InitServersWithOptions(opts *Options) (*Service, error) {
	cfg := &Config{}
	if err := common.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment variables: %w", err)
	}

	var logger mlog.Logger
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		logger = mzap.InitializeLogger()
	}

	telemetry := (&mopentelemetry.Telemetry{
		LibraryName:    common.GetenvOrDefault("OTEL_LIBRARY_NAME", "controlplane"),
		ServiceName:    common.GetenvOrDefault("OTEL_RESOURCE_SERVICE_NAME", in.ApplicationName),
		ServiceVersion: common.GetenvOrDefault("OTEL_RESOURCE_SERVICE_VERSION", "1.0.0"),
		DeploymentEnv:  common.GetenvOrDefault("OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT", "local"),
	}).InitializeTelemetry()

	pgConn := &mpostgres.PostgresConnection{
		ConnectionStringPrimary: cfg.PrimaryDBSource,
		ConnectionStringReplica: firstNonEmpty(cfg.ReplicaDBSource, cfg.PrimaryDBSource),
		PrimaryDBName:           cfg.PrimaryDBName,
		ReplicaDBName:           cfg.PrimaryDBName,
		MigrationsPath:          firstNonEmpty(cfg.MigrationsPath, "components/controlplane/migrations"),
	}
	if err := pgConn.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	rabbitConn := &mrabbitmq.RabbitMQConnection{
		ConnectionStringSource: cfg.RabbitMQURI,
		Logger:                 logger,
	}

	rabbitRepo := rabbitmq.NewProducerRabbitMQ(rabbitConn)

	artifactStore, err := buildArtifactStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build artifact store: %w", err)
	}

	modelRepo := catalogpg.NewModelPostgreSQLRepository(pgConn)
	metadataRepo := catalogpg.NewModelMetadataPostgreSQLRepository(pgConn)
	permissionRepo := catalogpg.NewModelPermissionPostgreSQLRepository(pgConn)
	dependencyRepo := catalogpg.NewModelDependencyPostgreSQLRepository(pgConn)
	jobMessageRepo := catalogpg.NewJobMessagePostgreSQLRepository(pgConn)
	deploymentRepo := deploymentpg.NewPostgreSQLRepository(pgConn)
	userRepo := identitypg.NewUserPostgreSQLRepository(pgConn)
	resetCodeRepo := identitypg.NewResetCodePostgreSQLRepository(pgConn)
	teamRepo := identitypg.NewTeamPostgreSQLRepository(pgConn)

	cmd := &command.UseCase{
		ModelRepo:           modelRepo,
		ModelMetadataRepo:   metadataRepo,
		ModelPermissionRepo: permissionRepo,
		ModelDependencyRepo: dependencyRepo,
		JobMessageRepo:      jobMessageRepo,
		DeploymentRepo:      deploymentRepo,
		UserRepo:            userRepo,
		ResetCodeRepo:       resetCodeRepo,
		TeamRepo:            teamRepo,
		RabbitMQRepo:        rabbitRepo,
		ArtifactStore:       artifactStore,
	}

	qry := &query.UseCase{
		ModelRepo:           modelRepo,
		ModelMetadataRepo:   metadataRepo,
		ModelPermissionRepo: permissionRepo,
		JobMessageRepo:      jobMessageRepo,
		DeploymentRepo:      deploymentRepo,
		UserRepo:            userRepo,
		TeamRepo:            teamRepo,
		ArtifactStore:       artifactStore,
	}

	principal := &in.PrincipalResolver{UserRepo: userRepo, TeamRepo: teamRepo}
	jwtSecret := []byte(cfg.JWTSecret)

	handlers := &in.Handlers{
		User:   &in.UserHandler{Command: cmd, Query: qry, JWTSecret: jwtSecret},
		Model:  &in.ModelHandler{Command: cmd, Query: qry, Principal: principal},
		Upload: &in.UploadHandler{Command: cmd, Query: qry, Principal: principal, JWTSecret: jwtSecret},
		Train:  &in.TrainHandler{Command: cmd},
		Deploy: &in.DeployHandler{Command: cmd, Query: qry, Principal: principal},
		Team:   &in.TeamHandler{Command: cmd, Query: qry, Principal: principal},
	}

	app := in.NewRouter(logger, telemetry, jwtSecret, handlers)

	server := NewServer(cfg, app, logger, telemetry)

	callbackConsumer := rabbitmq.NewCallbackConsumer(rabbitConn, cmd, logger)

	return &Service{
		Server:           server,
		RabbitConn:       rabbitConn,
		CallbackConsumer: callbackConsumer,
		Logger:           logger,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func buildArtifactStore(cfg *Config) (artifact.Store, error) {
	if cfg.StorageBackend == "s3" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, err
		}

		return s3store.NewStore(s3.NewFromConfig(awsCfg), cfg.S3Bucket), nil
	}

	root := firstNonEmpty(cfg.ArtifactRoot, "./data")

	return local.NewStore(root)
}
