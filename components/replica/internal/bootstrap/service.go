package bootstrap

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/components/replica/internal/services/coordinator"
)

// rebuildTickInterval is how often the production-mode rebuild worker
// replays newly-appended write-log records onto the in-memory snapshot.
const rebuildTickInterval = 2 * time.Second

// RebuildWorker periodically replays the durable write log onto the
// coordinator's snapshot, the process that makes a production-mode
// accepted-but-buffered write eventually visible to reads, per §4.5.
type RebuildWorker struct {
	Coordinator *coordinator.Coordinator
	Logger      mlog.Logger
}

// Run ticks Coordinator.Replay for the life of the process; the loop has no
// stop signal, so Run does not return. It satisfies common.App so the
// Launcher can manage it alongside the HTTP server.
func (w *RebuildWorker) Run(l *common.Launcher) error {
	ticker := time.NewTicker(rebuildTickInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := w.Coordinator.Replay(context.Background()); err != nil {
			w.Logger.Errorf("write log replay failed: %v", err)
		}
	}

	return nil
}

// Service is the application glue where top level components meet, the way
// the teacher's components/*/internal/bootstrap/service.go does it.
type Service struct {
	*Server
	RebuildWorker *RebuildWorker
	Logger        mlog.Logger
}

// Run starts the application. This is the only code main.go needs to run
// the replica.
func (s *Service) Run() {
	common.NewLauncher(
		common.WithLogger(s.Logger),
		common.RunApp("HTTP Service", s.Server),
		common.RunApp("Rebuild Worker", s.RebuildWorker),
	).Run()
}
