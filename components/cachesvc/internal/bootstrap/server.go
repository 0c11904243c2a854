package bootstrap

import (
	"github.com/gofiber/fiber/v2"
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
)

// Server is the cache's HTTP server.
type Server struct {
	app           *fiber.App
	serverAddress string
	logger        mlog.Logger
	telemetry     *mopentelemetry.Telemetry
}

// ServerAddress returns the address the server listens on.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger mlog.Logger, telemetry *mopentelemetry.Telemetry) *Server {
	addr := cfg.ServerAddress
	if addr == "" {
		addr = ":3003"
	}

	return &Server{
		app:           app,
		serverAddress: addr,
		logger:        logger,
		telemetry:     telemetry,
	}
}

// Run runs the server. It satisfies common.App so the Launcher can manage it.
func (s *Server) Run(l *common.Launcher) error {
	s.logger.Infof("Cache HTTP server listening on %s", s.serverAddress)

	defer s.telemetry.ShutdownTelemetry()

	return s.app.Listen(s.serverAddress)
}
