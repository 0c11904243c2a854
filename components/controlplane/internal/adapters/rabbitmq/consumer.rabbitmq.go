package rabbitmq

import (
	"context"
	"encoding/json"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mlog"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mrabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// JobsCallbackQueue is the queue the external runner publishes terminal and
// intermediate job status reports to, reconciled here (spec §4.4), the
// counterpart of command.JobsSubmitExchange.
const JobsCallbackQueue = "jobs.callback"

// CallbackCommands is the subset of command.UseCase the reconciliation
// worker drives; defined here to avoid an import cycle between this
// adapter package and components/controlplane/internal/services/command,
// which already imports this package for ProducerRepository.
type CallbackCommands interface {
	TrainUpdateStatus(ctx context.Context, in *mmodel.TrainUpdateStatusInput) error
	TrainComplete(ctx context.Context, in *mmodel.TrainCompleteInput) error
	UpdateDeploymentStatus(ctx context.Context, in *mmodel.UpdateDeploymentStatusInput) error
}

// callbackMessage is the envelope published to JobsCallbackQueue: a
// superset of mmodel.TrainUpdateStatusInput, mmodel.TrainCompleteInput and
// mmodel.UpdateDeploymentStatusInput, discriminated by JobKind.
type callbackMessage struct {
	JobKind      mmodel.JobKind    `json:"jobKind"`
	ModelID      string            `json:"modelId"`
	DeploymentID string            `json:"deploymentId"`
	Status       mmodel.TrainState `json:"status"`
	Message      string            `json:"message"`
	Metadata     map[string]any    `json:"metadata"`
}

// CallbackConsumer is the reconciliation worker of spec §4.4: it consumes
// JobsCallbackQueue and applies each report through the same state-machine
// path as the HTTP callback handlers, so a runner may report status over
// either transport interchangeably.
type CallbackConsumer struct {
	conn    *mrabbitmq.RabbitMQConnection
	command CallbackCommands
	logger  mlog.Logger
}

// NewCallbackConsumer returns a CallbackConsumer that will reconcile job
// status reports through cmd as it drains queue on the given connection.
func NewCallbackConsumer(conn *mrabbitmq.RabbitMQConnection, cmd CallbackCommands, logger mlog.Logger) *CallbackConsumer {
	return &CallbackConsumer{conn: conn, command: cmd, logger: logger}
}

// Run declares JobsCallbackQueue and consumes it until the channel closes.
// It satisfies common.App so the Launcher can manage it alongside the HTTP
// server.
func (c *CallbackConsumer) Run(l *common.Launcher) error {
	ch, err := c.conn.GetNewConnect()
	if err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(JobsCallbackQueue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(JobsCallbackQueue, "controlplane.reconciliation", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Infof("reconciliation worker consuming %s", JobsCallbackQueue)

	for d := range deliveries {
		if err := c.handle(context.Background(), d); err != nil {
			c.logger.Errorf("reconciliation: failed to apply job callback: %v", err)
			_ = d.Nack(false, true)

			continue
		}

		_ = d.Ack(false)
	}

	return nil
}

func (c *CallbackConsumer) handle(ctx context.Context, d amqp.Delivery) error {
	var msg callbackMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return err
	}

	switch msg.JobKind {
	case mmodel.JobKindDeploy:
		return c.command.UpdateDeploymentStatus(ctx, &mmodel.UpdateDeploymentStatusInput{
			DeploymentID: msg.DeploymentID,
			Status:       msg.Status,
			Message:      msg.Message,
		})
	default:
		if msg.Status == mmodel.StateComplete && msg.Metadata != nil {
			return c.command.TrainComplete(ctx, &mmodel.TrainCompleteInput{
				ModelID:  msg.ModelID,
				Metadata: msg.Metadata,
			})
		}

		return c.command.TrainUpdateStatus(ctx, &mmodel.TrainUpdateStatusInput{
			ModelID: msg.ModelID,
			Status:  msg.Status,
			Message: msg.Message,
		})
	}
}
