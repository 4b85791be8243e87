package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finanzas/internal/core"

	"github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Client is a publisher over one exchange. It implements services.Notifier.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
	}, nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	slog.DebugContext(ctx, "Published event",
		"routing_key", routingKey,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) TransactionCreated(ctx context.Context, userID string, t core.Transaction) error {
	body, err := NewCreatedEvent(userID, t).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal created event: %w", err)
	}
	return c.publish(ctx, KeyTransactionCreated, body)
}

func (c *Client) TransactionDeleted(ctx context.Context, userID string, kind core.Kind, id string) error {
	body, err := NewDeletedEvent(userID, kind, id).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal deleted event: %w", err)
	}
	return c.publish(ctx, KeyTransactionDeleted, body)
}

func (c *Client) RecurrenceFired(ctx context.Context, userID string, kind core.Kind, count int) error {
	body, err := NewRecurrenceEvent(userID, kind, count).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal recurrence event: %w", err)
	}
	return c.publish(ctx, KeyRecurrenceFired, body)
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
