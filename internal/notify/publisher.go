// Package notify publishes booking events to RabbitMQ.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys. Each one is also the name of a durable queue on the default
// exchange.
const (
	TopicEventConfirmed = "event.confirmed"
	TopicQuoteAccepted  = "quote.accepted"
)

const dialTimeout = 5 * time.Second

// Envelope wraps every published payload.
type Envelope struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher sends JSON messages to RabbitMQ. A Publisher without URL is a
// no-op so the API runs without a broker.
type Publisher struct {
	url     string
	logger  *slog.Logger
	now     func() time.Time
	pending sync.WaitGroup
}

// NewPublisher constructs Publisher.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, logger: logger, now: time.Now}
}

// Enabled reports whether a broker URL is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && p.url != ""
}

// Publish delivers payload under topic as a persistent message. Each call
// opens its own connection; publish volume is a handful of messages per
// booking.
func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	if !p.Enabled() {
		return nil
	}
	msg, err := p.message(topic, payload)
	if err != nil {
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("notify: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("notify: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(topic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("notify: declare %s: %w", topic, err)
	}
	if err := ch.PublishWithContext(ctx, "", topic, false, false, msg); err != nil {
		return fmt.Errorf("notify: publish %s: %w", topic, err)
	}
	p.logger.Debug("notification published", slog.String("topic", topic))
	return nil
}

// message wraps payload in an Envelope. The envelope id doubles as the AMQP
// message id so consumers can deduplicate on either.
func (p *Publisher) message(topic string, payload any) (amqp.Publishing, error) {
	id := uuid.NewString()
	now := p.now().UTC()
	body, err := json.Marshal(Envelope{ID: id, Topic: topic, OccurredAt: now, Data: payload})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("notify: marshal %s: %w", topic, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    now,
		Body:         body,
	}, nil
}

// PublishAsync publishes in the background and only logs failures. The
// request context is detached so a finished request does not cancel the send.
// Wait blocks until every background send has finished.
func (p *Publisher) PublishAsync(ctx context.Context, topic string, payload any) {
	if !p.Enabled() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, 2*dialTimeout)
		defer cancel()
		if err := p.Publish(ctx, topic, payload); err != nil {
			p.logger.Warn("notification not delivered", slog.String("topic", topic), slog.Any("error", err))
		}
	}()
}

// Wait blocks until background sends started by PublishAsync finish or ctx
// is done.
func (p *Publisher) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify: wait for pending sends: %w", ctx.Err())
	}
}
