package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
)

// ActivityLogFile is the file under the consumer's directory that receives
// one line per consumed message.
const ActivityLogFile = "activity.log"

// Consumer listens to the booking.created and event.deleted queues and
// appends a single human-friendly line per message to an activity log.
type Consumer struct {
	url string
	dir string
	log *slog.Logger
}

func NewConsumer(url, dir string, log *slog.Logger) *Consumer {
	if dir == "" {
		dir = "logs"
	}
	return &Consumer{url: url, dir: dir, log: log.With(slog.String("component", "consumer"))}
}

// Run connects and consumes until ctx is done, reconnecting with
// exponential backoff when the broker goes away.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", sl.Err(err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended; reconnecting", sl.Err(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", sl.Err(err))
	}

	merged := make(chan amqp.Delivery)
	done := make(chan struct{})
	defer close(done)
	for _, q := range []string{QueueBookingCreated, QueueEventDeleted} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func() {
			for d := range msgs {
				select {
				case merged <- d:
				case <-done:
					return
				}
			}
		}()
	}
	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case aerr := <-closed:
			if aerr != nil {
				return aerr
			}
			return errors.New("channel closed")
		case d := <-merged:
			if err := c.handleMessage(d.RoutingKey, d.Body); err != nil {
				c.log.Error("handle message failed", slog.String("queue", d.RoutingKey), sl.Err(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(queue string, body []byte) error {
	line, err := FormatActivity(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatActivity renders one newline-terminated log line for a message
// from queue.
func FormatActivity(queue string, body []byte) (string, error) {
	switch queue {
	case QueueBookingCreated:
		var ev BookingCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking created | booking_id=%d | fan_id=%d | event_id=%d | event=%q | venue=%q | date=%s\n",
			ev.BookedAt.UTC().Format(time.RFC3339), ev.BookingID, ev.FanID, ev.EventID,
			ev.EventTitle, ev.VenueName, ev.EventDate.Format("2006-01-02")), nil
	case QueueEventDeleted:
		var ev EventDeletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Event deleted | event_id=%d | artist_id=%d | event=%q | venue=%q | date=%s | bookings_removed=%d\n",
			ev.DeletedAt.UTC().Format(time.RFC3339), ev.EventID, ev.ArtistID,
			ev.Title, ev.VenueName, ev.EventDate.Format("2006-01-02"), ev.BookingsRemoved), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}
