package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"valcoin-api/internal/engine"
)

// Publisher notifies downstream consumers (reports, notifications) that a
// settlement pass ran and with which outcome.
type Publisher interface {
	PublishRunEvent(ctx context.Context, summary *engine.RunSummary) error
	Close() error
}

type publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *PublisherConfig
}

type PublisherConfig struct {
	URL           string
	ExchangeName  string
	RetryAttempts int
	RetryDelay    time.Duration
}

// RunEvent is the wire payload published for every settlement run.
type RunEvent struct {
	EventID   string    `json:"event_id"`
	Job       string    `json:"job"`
	Outcome   string    `json:"outcome"`
	Message   string    `json:"message,omitempty"`
	Posted    int       `json:"posted"`
	Skipped   int       `json:"skipped"`
	Duration  string    `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPublisher(config *PublisherConfig) (Publisher, error) {
	if config.ExchangeName == "" {
		config.ExchangeName = "valcoin.settlements"
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 2 * time.Second
	}

	p := &publisher{config: config}

	if err := p.connect(); err != nil {
		return nil, err
	}
	if err := p.setupExchange(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *publisher) connect() error {
	var err error
	p.conn, err = amqp.Dial(p.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	p.channel, err = p.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	return nil
}

func (p *publisher) setupExchange() error {
	err := p.channel.ExchangeDeclare(
		p.config.ExchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", p.config.ExchangeName, err)
	}
	return nil
}

func (p *publisher) PublishRunEvent(ctx context.Context, summary *engine.RunSummary) error {
	event := &RunEvent{
		EventID:   fmt.Sprintf("run_%s_%d", summary.Job, time.Now().UnixNano()),
		Job:       summary.Job,
		Outcome:   summary.Outcome,
		Message:   summary.Message,
		Posted:    summary.Posted,
		Skipped:   summary.Skipped,
		Duration:  summary.Duration.String(),
		Timestamp: time.Now(),
	}

	routingKey := fmt.Sprintf("settlement.run.%s.%s", summary.Job, summary.Outcome)
	return p.publishMessage(ctx, routingKey, event)
}

func (p *publisher) publishMessage(ctx context.Context, routingKey string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Timestamp:    time.Now(),
		DeliveryMode: amqp.Persistent,
	}

	var publishErr error
	for attempt := 0; attempt < p.config.RetryAttempts; attempt++ {
		publishErr = p.channel.PublishWithContext(
			ctx,
			p.config.ExchangeName,
			routingKey,
			false, // mandatory
			false, // immediate
			publishing,
		)
		if publishErr == nil {
			return nil
		}

		if p.conn.IsClosed() {
			if reconnectErr := p.reconnect(); reconnectErr != nil {
				logrus.WithError(reconnectErr).Warn("Failed to reconnect to RabbitMQ")
			}
		}

		if attempt < p.config.RetryAttempts-1 {
			time.Sleep(p.config.RetryDelay * time.Duration(attempt+1))
		}
	}

	return fmt.Errorf("failed to publish event after %d attempts: %w", p.config.RetryAttempts, publishErr)
}

func (p *publisher) reconnect() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
	if err := p.connect(); err != nil {
		return err
	}
	return p.setupExchange()
}

func (p *publisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %v", errs)
	}
	return nil
}
