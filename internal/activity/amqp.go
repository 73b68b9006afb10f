package activity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Event is the message body published for each activity
type Event struct {
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// publisher is the subset of *amqp.Channel used by AMQPSink
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPSink publishes events to a topic exchange, routed by action name
type AMQPSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// NewAMQPSink dials the broker and declares a durable topic exchange
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPSink{conn: conn, channel: ch, exchange: exchange}, nil
}

func (s *AMQPSink) LogActivity(ctx context.Context, userID int64, action, message string) error {
	now := time.Now().UTC()
	body, err := json.Marshal(Event{UserID: userID, Action: action, Message: message, OccurredAt: now})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.channel.PublishWithContext(ctx, s.exchange, "auth."+action, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Body:         body,
	})
}

// Close closes the underlying channel and connection.
func (s *AMQPSink) Close() error {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
