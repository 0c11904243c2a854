package bootstrap

import (
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mrabbitmq"
	"github.com/thirdway-labs/modelctl/components/controlplane/internal/adapters/rabbitmq"
)

// Service is the application glue where top level components meet, the way
// the teacher's components/*/internal/bootstrap/service.go does it.
type Service struct {
	*Server
	RabbitConn       *mrabbitmq.RabbitMQConnection
	CallbackConsumer *rabbitmq.CallbackConsumer
	Logger           mlog.Logger
}

// Run starts the application. This is the only code main.go needs to run
// the control plane.
func (s *Service) Run() {
	common.NewLauncher(
		common.WithLogger(s.Logger),
		common.RunApp("HTTP Service", s.Server),
		common.RunApp("Reconciliation Worker", s.CallbackConsumer),
	).Run()
}
