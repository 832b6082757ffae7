package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends domain events to RabbitMQ.  Each call dials, declares the
// durable queue and publishes one persistent message; the request path
// treats failures as non-fatal.
type Publisher struct {
	url string
	log *slog.Logger
}

func NewPublisher(url string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, log: log.With(slog.String("component", "publisher"))}
}

// Publish marshals v to JSON and sends it to queue via the default exchange.
func (p *Publisher) Publish(ctx context.Context, queue string, v any) error {
	const op = "queue.Publisher.Publish"

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("%s: dial: %w", op, err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("%s: channel: %w", op, err)
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("%s: queue declare: %w", op, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         queue,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("%s: publish: %w", op, err)
	}
	p.log.Debug("published", slog.String("queue", queue), slog.String("message_id", pub.MessageId))
	return nil
}

func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	return p.Publish(ctx, QueueBookingCreated, ev)
}

func (p *Publisher) PublishEventDeleted(ctx context.Context, ev EventDeletedEvent) error {
	return p.Publish(ctx, QueueEventDeleted, ev)
}
