package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EnvelopeHandler processes one mirrored event. Returning an error nacks
// the delivery back onto the queue.
type EnvelopeHandler func(ctx context.Context, env Envelope) error

// Consumer binds a durable queue to the events exchange for one routing
// pattern and feeds deliveries to a handler.
type Consumer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   amqp091.Queue
	pattern string
	handler EnvelopeHandler
	logger  *zap.Logger
}

func NewConsumer(url, queueName, pattern string, logger *zap.Logger) (*Consumer, error) {
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

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, pattern, ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	logger.Info("Consumer initialized",
		zap.String("pattern", pattern),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:    conn,
		channel: ch,
		queue:   q,
		pattern: pattern,
		logger:  logger,
	}, nil
}

func (c *Consumer) SetHandler(h EnvelopeHandler) {
	c.handler = h
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks, draining the queue until the channel closes.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		"activity-worker",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started",
		zap.String("pattern", c.pattern),
		zap.String("queue", c.queue.Name),
	)

	for msg := range deliveries {
		c.handle(ctx, msg)
	}
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("queue", c.queue.Name),
				zap.Any("panic", r),
			)
			_ = msg.Nack(false, true)
		}
	}()

	var env Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		c.logger.Error("Failed to decode envelope, dropping",
			zap.Error(err),
			zap.String("routing_key", msg.RoutingKey),
		)
		_ = msg.Nack(false, false)
		return
	}

	if err := c.handler(ctx, env); err != nil {
		c.logger.Error("Handler failed, requeueing",
			zap.Error(err),
			zap.String("event", env.Event),
		)
		_ = msg.Nack(false, true)
		return
	}

	_ = msg.Ack(false)
}
