// Package queue moves ingest jobs between the API server and the worker
// over RabbitMQ.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kgraph/internal/config"
	"github.com/OFFIS-RIT/kgraph/internal/util"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// IngestQueue receives jobs published by the API server.
const IngestQueue = "ingest_queue"

// RetryDelay is how long a failed message waits in the retry queue before it
// is dead-lettered back to its main queue.
const RetryDelay = 10 * time.Second

// Declarer declares queues. *amqp091.Channel implements it.
type Declarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// Publisher publishes messages. *amqp091.Channel implements it.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// dialAttempts bounds how often Dial tries to reach a broker that is still
// starting up.
const dialAttempts = 5

// Dial connects to the broker described by cfg.
func Dial(ctx context.Context, cfg config.QueueConfig) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	err := util.RetryErrWithContext(ctx, dialAttempts, func(context.Context) error {
		c, err := amqp091.Dial(cfg.URL())
		if err != nil {
			logger.Warn("[Queue] Broker not reachable", "host", cfg.Host, "err", err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// SetupQueues declares every queue with its _retry and _dlq companions.
func SetupQueues(ch Declarer, queueNames []string) error {
	for _, name := range queueNames {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", name, err)
		}

		dlqName := name + "_dlq"
		if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", dlqName, err)
		}

		retryName := name + "_retry"
		_, err := ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelay.Milliseconds()),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", retryName, err)
		}
	}

	return nil
}

// PublishFIFO sends a persistent message to queueName on the default
// exchange.
func PublishFIFO(ch Publisher, queueName string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	if err := ch.Publish("", queueName, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	return nil
}
