package mrabbitmq

import (
	"context"
	"fmt"

	"github.com/thirdway-labs/modelctl/common/mlog"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQConnection is a hub which deals with rabbitmq connections, shared
// by the job-submission producer and the callback/reconciliation consumers.
type RabbitMQConnection struct {
	ConnectionStringSource string
	Channel                *amqp.Channel
	Connected              bool
	Logger                 mlog.Logger

	conn *amqp.Connection
}

// GetNewConnect returns the singleton channel, dialing and opening it on
// first use.
func (rc *RabbitMQConnection) GetNewConnect() (*amqp.Channel, error) {
	if rc.Connected && rc.Channel != nil {
		return rc.Channel, nil
	}

	return rc.connect()
}

func (rc *RabbitMQConnection) connect() (*amqp.Channel, error) {
	rc.Logger.Info("Connecting on rabbitmq...")

	conn, err := amqp.Dial(rc.ConnectionStringSource)
	if err != nil {
		rc.Connected = false
		return nil, fmt.Errorf("failed to connect on rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		rc.Connected = false
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open channel on rabbitmq: %w", err)
	}

	rc.conn = conn
	rc.Channel = ch
	rc.Connected = true

	rc.Logger.Info("Connected on rabbitmq")

	return rc.Channel, nil
}

// HealthCheck reports whether the channel is open and the broker reachable.
func (rc *RabbitMQConnection) HealthCheck() bool {
	if !rc.Connected || rc.Channel == nil {
		return false
	}

	return !rc.Channel.IsClosed()
}

// Close tears down the channel and connection.
func (rc *RabbitMQConnection) Close(_ context.Context) error {
	if rc.Channel != nil {
		_ = rc.Channel.Close()
	}

	if rc.conn != nil {
		return rc.conn.Close()
	}

	return nil
}
