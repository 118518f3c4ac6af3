package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublishNacked is returned when the broker refuses a confirmed publish.
var ErrPublishNacked = errors.New("rabbitmq: publish nacked by broker")

type rabbitConn struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	Queue string
}

// dialQueue connects and declares queue as durable.
func dialQueue(url, queue string) (*rabbitConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &rabbitConn{conn: conn, ch: ch, Queue: queue}, nil
}

func (r *rabbitConn) Close() {
	if r == nil {
		return
	}
	if r.ch != nil {
		_ = r.ch.Close()
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
}

// RabbitPublisher publishes JSON messages to one queue through the default
// exchange. When the broker supports publisher confirms every publish waits
// for its ack.
type RabbitPublisher struct {
	*rabbitConn
	confirms bool
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	rc, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	p := &RabbitPublisher{rabbitConn: rc}
	if err := rc.ch.Confirm(false); err == nil {
		p.confirms = true
	}
	return p, nil
}

// PublishJSON publishes a JSON-encoded persistent message.
func (p *RabbitPublisher) PublishJSON(ctx context.Context, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	}
	if !p.confirms {
		return p.ch.PublishWithContext(ctx, "", p.Queue, false, false, msg)
	}
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, "", p.Queue, false, false, msg)
	if err != nil {
		return err
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrPublishNacked
	}
	return nil
}

// RabbitConsumer reads deliveries from one queue with manual acks.
type RabbitConsumer struct {
	*rabbitConn
}

// NewRabbitConsumer limits unacked deliveries in flight to prefetch.
func NewRabbitConsumer(url, queue string, prefetch int) (*RabbitConsumer, error) {
	rc, err := dialQueue(url, queue)
	if err != nil {
		return nil, err
	}
	if err := rc.ch.Qos(prefetch, 0, false); err != nil {
		rc.Close()
		return nil, err
	}
	return &RabbitConsumer{rabbitConn: rc}, nil
}

func (c *RabbitConsumer) Deliveries() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.Queue, "", false, false, false, false, nil)
}
