package queue

import (
	"github.com/OFFIS-RIT/kgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// MaxRetries is how often a message is retried before it is moved to the
// dead-letter queue.
const MaxRetries = 10

const retriesHeader = "x-retries"

func retryCount(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// HandleProcessingError moves a failed message to queueName_retry, or to
// queueName_dlq once it has been retried MaxRetries times or can never
// succeed. The received delivery is acked after the copy is published and
// requeued if publishing fails.
func HandleProcessingError(ch Publisher, msg amqp091.Delivery, queueName string, permanent bool) {
	retries := retryCount(msg.Headers)

	if permanent || retries >= MaxRetries {
		dlqName := queueName + "_dlq"
		logger.Info("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries)
		err := ch.Publish("", dlqName, false, false, amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      msg.Headers,
			DeliveryMode: amqp091.Persistent,
		})
		if err != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", err)
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retriesHeader] = int32(retries + 1)

	err := ch.Publish("", retryName, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
