package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	appErrors "github.com/textloop/textloop-backend/internal/errors"
)

const (
	sendQueue = "sms_sends"
	// Retry queue: no consumers, 60s TTL, dead-letters back onto sms_sends.
	// Republishing a failed job here gives the fixed retry backoff without
	// sleeping in the worker.
	retryQueue = "sms_sends_retry"
)

// AMQPQueue is the production Queue: a durable RabbitMQ queue plus a
// TTL-based retry queue for delivery backoff.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  zerolog.Logger
}

func NewAMQPQueue(url string, log zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(sendQueue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", sendQueue, err)
	}

	if _, err := ch.QueueDeclare(retryQueue, true, false, false, false, amqp.Table{
		"x-message-ttl":             RetryDelay.Milliseconds(),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": sendQueue,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", retryQueue, err)
	}

	return &AMQPQueue{conn: conn, ch: ch, log: log}, nil
}

func (q *AMQPQueue) Close() error {
	q.ch.Close()
	return q.conn.Close()
}

// Publish enqueues a job for the workers.
func (q *AMQPQueue) Publish(ctx context.Context, job Job) error {
	return q.publish(job, sendQueue)
}

func (q *AMQPQueue) publish(job Job, target string) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.ch.Publish("", target, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume processes jobs until ctx is cancelled. Transient delivery failures
// are republished through the retry queue with a bumped attempt counter;
// everything else is acked exactly once.
func (q *AMQPQueue) Consume(ctx context.Context, handler Handler) error {
	deliveries, err := q.ch.Consume(sendQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			q.handleDelivery(ctx, handler, d)
		}
	}
}

func (q *AMQPQueue) handleDelivery(ctx context.Context, handler Handler, d amqp.Delivery) {
	var job Job
	if err := json.Unmarshal(d.Body, &job); err != nil {
		q.log.Error().Err(err).Msg("invalid job payload, dropping")
		d.Ack(false)
		return
	}

	err := handler(ctx, job)
	if err == nil {
		d.Ack(false)
		return
	}

	var delivery *appErrors.DeliveryError
	if !errors.As(err, &delivery) {
		q.log.Error().Err(err).Str("job_id", job.ID).Int("record_id", job.RecordID).
			Msg("job terminated without retry")
		d.Ack(false)
		return
	}

	if job.Attempt >= MaxAttempts {
		q.log.Error().Err(err).Str("job_id", job.ID).Int("record_id", job.RecordID).
			Int("attempts", job.Attempt).Msg("job abandoned after retries")
		d.Ack(false)
		return
	}

	job.Attempt++
	if pubErr := q.publish(job, retryQueue); pubErr != nil {
		q.log.Error().Err(pubErr).Str("job_id", job.ID).Msg("failed to schedule retry, requeueing")
		d.Nack(false, true)
		return
	}
	d.Ack(false)
}
