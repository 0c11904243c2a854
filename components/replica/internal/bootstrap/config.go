// Package bootstrap wires a single deployed replica's concrete adapters
// behind the write-coordinator contract, following the same layout as
// components/controlplane's bootstrap package.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	"github.com/thirdway-labs/modelctl/common/mzap"
	catalogpg "github.com/thirdway-labs/modelctl/common/adapters/postgres/catalog"
	identitypg "github.com/thirdway-labs/modelctl/common/adapters/postgres/identity"
	"github.com/thirdway-labs/modelctl/components/replica/internal/adapters/http/in"
	leaselocal "github.com/thirdway-labs/modelctl/components/replica/internal/adapters/lease/local"
	"github.com/thirdway-labs/modelctl/components/replica/internal/adapters/permsvc"
	writeloglocal "github.com/thirdway-labs/modelctl/components/replica/internal/adapters/writelog/local"
	replicadom "github.com/thirdway-labs/modelctl/components/replica/internal/domain/replica"
	"github.com/thirdway-labs/modelctl/components/replica/internal/services/coordinator"
	"github.com/google/uuid"
)

// Config is the top level configuration struct for a deployed replica,
// populated from environment variables via the "env" struct tag.
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

	JWTSecret string `env:"JWT_SIGNING_SECRET"`

	DeploymentID  string `env:"DEPLOYMENT_ID"`
	SourceModelID string `env:"SOURCE_MODEL_ID"`

	Mode string `env:"REPLICA_MODE"` // "development" or "production"

	DataDir     string        `env:"REPLICA_DATA_DIR"`
	LeasePeriod time.Duration `env:"REPLICA_LEASE_PERIOD"`
	PermTTL     time.Duration `env:"REPLICA_PERMISSION_CACHE_TTL"`
}

// Options contains optional dependencies a caller (e.g. a test harness) may inject.
type Options struct {
	Logger mlog.Logger
}

// InitServers initializes a replica with configuration read from the environment.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions initializes a replica, optionally overriding
// dependencies via opts.
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
		LibraryName:    common.GetenvOrDefault("OTEL_LIBRARY_NAME", "replica"),
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
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	modelRepo := catalogpg.NewModelPostgreSQLRepository(pgConn)
	permRepo := catalogpg.NewModelPermissionPostgreSQLRepository(pgConn)
	userRepo := identitypg.NewUserPostgreSQLRepository(pgConn)
	teamRepo := identitypg.NewTeamPostgreSQLRepository(pgConn)

	sourceModelID, err := uuid.Parse(cfg.SourceModelID)
	if err != nil {
		return nil, fmt.Errorf("SOURCE_MODEL_ID is not a valid uuid: %w", err)
	}

	dataDir := firstNonEmpty(cfg.DataDir, "./data")

	writeLog, err := writeloglocal.NewLog(filepath.Join(dataDir, "deployments", cfg.DeploymentID, "writelog.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open write log: %w", err)
	}

	leasePeriod := cfg.LeasePeriod
	if leasePeriod <= 0 {
		leasePeriod = 30 * time.Second
	}

	lease, err := leaselocal.NewLease(filepath.Join(dataDir, "deployments", cfg.DeploymentID, "lease.json"), leasePeriod)
	if err != nil {
		return nil, fmt.Errorf("failed to open lease: %w", err)
	}

	mode := coordinator.ModeDevelopment
	if cfg.Mode == string(coordinator.ModeProduction) {
		mode = coordinator.ModeProduction
	}

	snapshot := replicadom.NewSnapshot()

	coord := &coordinator.Coordinator{
		DeploymentID: cfg.DeploymentID,
		Mode:         mode,
		Snapshot:     snapshot,
		Log:          writeLog,
		Lease:        lease,
		ModelRepo:    modelRepo,
	}

	if err := coord.Replay(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to replay write log: %w", err)
	}

	permResolver := permsvc.NewResolver(modelRepo, permRepo, userRepo, teamRepo, sourceModelID, cfg.PermTTL)

	handler := &in.Handler{
		Coordinator:   coord,
		Permission:    permResolver,
		SourceModelID: sourceModelID,
	}

	app := in.NewRouter(logger, telemetry, []byte(cfg.JWTSecret), handler)

	server := NewServer(cfg, app, logger, telemetry)

	return &Service{
		Server:        server,
		RebuildWorker: &RebuildWorker{Coordinator: coord, Logger: logger},
		Logger:        logger,
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
