package rabbitmq

import (
	"fmt"
	"log/slog"

	"github.com/Eursukkul/studio-booking/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SessionQueue      = "booking-service.sessions"
	SessionBindingKey = "session.*"
)

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     *slog.Logger
}

// NewConsumer declares a durable queue bound to bindingKey on the studio exchange.
func NewConsumer(url, queue, bindingKey string, log *slog.Logger) (*Consumer, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		closeAll(ch, conn)
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, bindingKey, ExchangeName, false, nil); err != nil {
		closeAll(ch, conn)
		return nil, fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	return &Consumer{conn: conn, channel: ch, queue: q.Name, log: logger.Component(log, "amqp")}, nil
}

func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(
		c.queue,
		"",    // consumer tag
		false, // manual ack after processing
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}

	c.log.Info("consuming", "queue", c.queue)
	return msgs, nil
}

func (c *Consumer) Close() {
	closeAll(c.channel, c.conn)
}
