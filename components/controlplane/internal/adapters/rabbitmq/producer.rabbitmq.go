package rabbitmq

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mrabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ProducerRepository provides an interface for publishing job-specification
// messages to the external runner; the orchestrator depends only on this
// interface, not on the concrete RabbitMQ connection.
type ProducerRepository interface {
	ProducerDefault(ctx context.Context, exchange, key string, message []byte) error
	CheckRabbitMQHealth() bool
}

// ProducerRabbitMQRepository publishes to the exchange the caller names
// (jobs.submit for job submissions, jobs.stop for stop requests).
type ProducerRabbitMQRepository struct {
	conn *mrabbitmq.RabbitMQConnection
}

// NewProducerRabbitMQ returns a new instance of ProducerRabbitMQRepository using the given RabbitMQ connection.
func NewProducerRabbitMQ(c *mrabbitmq.RabbitMQConnection) *ProducerRabbitMQRepository {
	p := &ProducerRabbitMQRepository{conn: c}

	if _, err := c.GetNewConnect(); err != nil {
		panic("Failed to connect rabbitmq")
	}

	return p
}

// CheckRabbitMQHealth reports whether the underlying connection is usable.
func (p *ProducerRabbitMQRepository) CheckRabbitMQHealth() bool {
	return p.conn.HealthCheck()
}

// ProducerDefault publishes a persistent message to exchange under key.
func (p *ProducerRabbitMQRepository) ProducerDefault(ctx context.Context, exchange, key string, message []byte) error {
	logger := common.NewLoggerFromContext(ctx)
	tracer := common.NewTracerFromContext(ctx)

	_, span := tracer.Start(ctx, "rabbitmq.producer.publish_message")
	defer span.End()

	logger.Infof("publishing job message to exchange %s key %s", exchange, key)

	err := p.conn.Channel.Publish(
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         message,
		})
	if err != nil {
		logger.Errorf("failed to publish job message: %v", err)

		return err
	}

	return nil
}
