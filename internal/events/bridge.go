package events

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rabbitmq/amqp091-go"
)

const ExchangeName = "events"

// Envelope is the message body the bridge places on the exchange.
type Envelope struct {
	Event  string          `json:"event"`
	UserID string          `json:"userId,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// AMQPBridge mirrors bus events onto a durable topic exchange. Routing
// keys are the event name with ':' replaced by '.' (task.created, ...);
// targeted events are prefixed with user.<id>.
type AMQPBridge struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

func NewAMQPBridge(url string) (*AMQPBridge, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPBridge{conn: conn, channel: ch}, nil
}

func declareExchange(ch *amqp091.Channel) error {
	return ch.ExchangeDeclare(
		ExchangeName,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

func (b *AMQPBridge) Close() {
	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

func routingKey(event string) string {
	return strings.ReplaceAll(event, ":", ".")
}

func (b *AMQPBridge) publish(key string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return b.channel.Publish(
		ExchangeName,
		key,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

func (b *AMQPBridge) Publish(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.publish(routingKey(event), Envelope{Event: event, Data: data})
}

func (b *AMQPBridge) PublishToUser(userID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	key := "user." + userID + "." + routingKey(event)
	return b.publish(key, Envelope{Event: event, UserID: userID, Data: data})
}
