package bootstrap

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/components/cachesvc/internal/services/refresh"
)

// RefreshWorker periodically drains the insertion log and consolidates it
// into the indexed store, the only long-running process §4.6 names besides
// the HTTP server.
type RefreshWorker struct {
	Job      *refresh.Job
	Interval time.Duration
	Logger   mlog.Logger
}

// Run ticks Job.Run on Interval until the process is asked to stop. It
// satisfies common.App so the Launcher can manage it alongside the HTTP
// server.
func (w *RefreshWorker) Run(l *common.Launcher) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for range ticker.C {
		n, err := w.Job.Run(context.Background())
		if err != nil {
			w.Logger.Errorf("cache refresh pass failed: %v", err)
			continue
		}

		if n > 0 {
			w.Logger.Infof("cache refresh pass consolidated %d record(s)", n)
		}
	}

	return nil
}

// Service is the application glue where top level components meet, the way
// the teacher's components/*/internal/bootstrap/service.go does it.
type Service struct {
	*Server
	RefreshWorker *RefreshWorker
	Logger        mlog.Logger
}

// Run starts the application. This is the only code main.go needs to run
// the cache service.
func (s *Service) Run() {
	common.NewLauncher(
		common.WithLogger(s.Logger),
		common.RunApp("HTTP Service", s.Server),
		common.RunApp("Cache Refresh Worker", s.RefreshWorker),
	).Run()
}
