// Package bootstrap wires the semantic response cache's concrete adapters
// behind the domain interfaces and constructs the Fiber app, following the
// same layout as components/controlplane's bootstrap package.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	"github.com/thirdway-labs/modelctl/common/mredis"
	"github.com/thirdway-labs/modelctl/common/mzap"
	catalogpg "github.com/thirdway-labs/modelctl/common/adapters/postgres/catalog"
	identitypg "github.com/thirdway-labs/modelctl/common/adapters/postgres/identity"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/adapters/http/in"
	insertloglocal "github.com/thirdway-labs/modelctl/components/cachesvc/internal/adapters/insertlog/local"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/adapters/permsvc"
	cacheredis "github.com/thirdway-labs/modelctl/components/cachesvc/internal/adapters/redis"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/cachesvc"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/refresh"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/similarity"
)

// Config is the top level configuration struct for the cache service,
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

	RedisURI string `env:"REDIS_URI"`

	JWTSecret string `env:"JWT_SIGNING_SECRET"`

	DataDir         string        `env:"CACHE_DATA_DIR"`
	RefreshInterval time.Duration `env:"CACHE_REFRESH_INTERVAL"`

	// FusionWeight and SimilarityThresh are read directly from the
	// environment in InitServersWithOptions rather than via the "env" tag:
	// SetConfigFromEnvVars only special-cases bool and integer kinds, and
	// would panic calling SetString on a float64 field.
	FusionWeight     float64
	SimilarityThresh float64
}

// Options contains optional dependencies a caller (e.g. a test harness) may inject.
type Options struct {
	Logger mlog.Logger
}

// InitServers initializes the cache service with configuration read from
// the environment.
func InitServers() (*Service, error) {
	return InitServersWithOptions(nil)
}

// InitServersWithOptions initializes the cache service, optionally
// overriding dependencies via opts.
func InitServersWithOptions(opts *Options) (*Service, error) {
	cfg := &Config{}
	if err := common.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment variables: %w", err)
	}

	cfg.FusionWeight, _ = strconv.ParseFloat(os.Getenv("CACHE_FUSION_SEMANTIC_WEIGHT"), 64)
	cfg.SimilarityThresh, _ = strconv.ParseFloat(os.Getenv("CACHE_SIMILARITY_THRESHOLD"), 64)

	var logger mlog.Logger
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		logger = mzap.InitializeLogger()
	}

	telemetry := (&mopentelemetry.Telemetry{
		LibraryName:    common.GetenvOrDefault("OTEL_LIBRARY_NAME", "cachesvc"),
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

	redisConn := &mredis.RedisConnection{
		ConnectionStringSource: cfg.RedisURI,
		Logger:                 logger,
	}

	redisClient, err := redisConn.GetDB(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	modelRepo := catalogpg.NewModelPostgreSQLRepository(pgConn)
	permRepo := catalogpg.NewModelPermissionPostgreSQLRepository(pgConn)
	userRepo := identitypg.NewUserPostgreSQLRepository(pgConn)
	teamRepo := identitypg.NewTeamPostgreSQLRepository(pgConn)

	dataDir := firstNonEmpty(cfg.DataDir, "./data")

	insertLog, err := insertloglocal.NewLog(filepath.Join(dataDir, "cache", "insertions.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache insertion log: %w", err)
	}

	store := cacheredis.NewStore(redisClient)

	weight := similarityWeight(cfg)

	useCase := cachesvc.NewUseCase(store, insertLog, weight, cfg.SimilarityThresh)

	permResolver := permsvc.NewResolver(modelRepo, permRepo, userRepo, teamRepo)

	handler := &in.Handler{
		UseCase:    useCase,
		Permission: permResolver,
		JWTSecret:  []byte(cfg.JWTSecret),
	}

	app := in.NewRouter(logger, telemetry, []byte(cfg.JWTSecret), handler)

	server := NewServer(cfg, app, logger, telemetry)

	refreshInterval := cfg.RefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}

	refreshWorker := &RefreshWorker{
		Job:      refresh.NewJob(store, insertLog),
		Interval: refreshInterval,
		Logger:   logger,
	}

	return &Service{
		Server:        server,
		RefreshWorker: refreshWorker,
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

// similarityWeight derives a FusionWeight from the configured semantic
// share, leaving the zero value (and so similarity.DefaultFusionWeight) in
// place when the operator hasn't set CACHE_FUSION_SEMANTIC_WEIGHT.
func similarityWeight(cfg *Config) similarity.FusionWeight {
	if cfg.FusionWeight <= 0 || cfg.FusionWeight >= 1 {
		return similarity.FusionWeight{}
	}

	return similarity.FusionWeight{
		SemanticWeight: cfg.FusionWeight,
		OverlapWeight:  1 - cfg.FusionWeight,
	}
}
