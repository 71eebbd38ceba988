package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/kgraph/pkg/ai"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// Metrics is reported and reset after every message.
type Metrics interface {
	GetMetrics() ai.ModelMetrics
	ResetMetrics()
}

// HandleFunc processes one message body.
type HandleFunc func(ctx context.Context, body []byte) error

// Process runs handle on msg and settles the delivery. Errors wrapping
// ErrInvalidJob go straight to the dead-letter queue.
func Process(ctx context.Context, ch Publisher, msg amqp091.Delivery, queueName string, handle HandleFunc) error {
	err := handle(ctx, msg.Body)
	if err != nil {
		logger.Error("[Queue] Error processing message", "queue", queueName, "err", err)
		HandleProcessingError(ch, msg, queueName, errors.Is(err, ErrInvalidJob))
		return err
	}
	if err := msg.Ack(false); err != nil {
		logger.Error("[Queue] Failed to ack message", "err", err)
	}
	logger.Info("[Queue] Message processed successfully", "queue", queueName)
	return nil
}

// Consume delivers the messages of queueName to handle one at a time until
// ctx is canceled.
func Consume(ctx context.Context, ch *amqp091.Channel, queueName string, handle HandleFunc, metrics Metrics) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := ch.Consume(queueName, queueName+"_consumer", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queueName, err)
	}

	logger.Info("[Queue] Listening for messages", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			logger.Info("[Queue] Stopping consumer", "queue", queueName)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel of %s closed", queueName)
			}
			start := time.Now()
			_ = Process(ctx, ch, msg, queueName, handle)
			if metrics != nil {
				m := metrics.GetMetrics()
				logger.Info(
					"[Queue] AI metrics",
					"input_tokens", m.InputTokens,
					"output_tokens", m.OutputTokens,
					"total_tokens", m.TotalTokens,
					"duration", time.Duration(m.DurationMs)*time.Millisecond,
				)
				metrics.ResetMetrics()
			}
			logger.Info("[Queue] Processing time", "duration", time.Since(start).Round(time.Second))
		}
	}
}
