package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/dtp-id/talenta/pkg/models"
)

// Exchange is the topic exchange session updates are published to.
const Exchange = "session_updates"

// RoutingKey returns "session.{userID}".
func RoutingKey(userID int64) string {
	return "session." + strconv.FormatInt(userID, 10)
}

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events to the session_updates exchange.
// Publish failures are logged and never returned to the interview flow.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   Channel
	mu   sync.Mutex
}

// DialAMQP connects to url and declares the exchange.
func DialAMQP(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewAMQPPublisher(ch)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewAMQPPublisher declares the exchange on ch and returns a publisher using it.
func NewAMQPPublisher(ch Channel) (*AMQPPublisher, error) {
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}
	return &AMQPPublisher{ch: ch}, nil
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(_ context.Context, ev models.SessionEvent) {
	if err := p.publish(ev); err != nil {
		log.Warn().Err(err).Int64("user_id", ev.UserID).Msg("Failed to publish session event")
	}
}

func (p *AMQPPublisher) publish(ev models.SessionEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return errors.New("publisher closed")
	}
	return p.ch.Publish(Exchange, RoutingKey(ev.UserID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
		p.conn = nil
	}
	return err
}
