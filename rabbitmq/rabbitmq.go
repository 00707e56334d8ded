package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"coffee-shop/config"
	"coffee-shop/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrDelayUnsupported is returned by PublishDelayedEvent when the broker
// lacks the delayed-message exchange plugin.
var ErrDelayUnsupported = errors.New("delayed exchange not available")

// Channel is the subset of *amqp.Channel used here.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel Channel
	Cfg     *config.Config

	mu      sync.Mutex
	delayed bool
}

func NewRabbitMQ(cfg *config.Config) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return &RabbitMQ{
		Conn:    conn,
		Channel: ch,
		Cfg:     cfg,
	}, nil
}

// DeadLetterExchange is the exchange rejected order messages are routed to.
func (r *RabbitMQ) DeadLetterExchange() string {
	return r.Cfg.DeadLetterQueue + "_exchange"
}

// SetupQueues declares the order exchange and priority queue, the dead letter
// exchange and queue, and the delayed exchange when the broker supports it.
func (r *RabbitMQ) SetupQueues() error {
	if err := r.Channel.ExchangeDeclare(r.DeadLetterExchange(), "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead letter exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.DeadLetterQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-queue-type": "classic"},
	); err != nil {
		return fmt.Errorf("declare dead letter queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.DeadLetterQueue, r.Cfg.DeadLetterQueue, r.DeadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("bind dead letter queue: %w", err)
	}

	if err := r.Channel.ExchangeDeclare(r.Cfg.OrderExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare order exchange: %w", err)
	}

	if _, err := r.Channel.QueueDeclare(
		r.Cfg.OrderQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-max-priority":            r.Cfg.MaxPriority,
			"x-dead-letter-exchange":    r.DeadLetterExchange(),
			"x-dead-letter-routing-key": r.Cfg.DeadLetterQueue,
		},
	); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}

	if err := r.Channel.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.OrderExchange, false, nil); err != nil {
		return fmt.Errorf("bind order queue: %w", err)
	}

	r.setupDelayExchange()
	return nil
}

// setupDelayExchange needs the rabbitmq_delayed_message_exchange plugin. A
// failed declare closes the channel it ran on, so it is probed on a
// throwaway channel first.
func (r *RabbitMQ) setupDelayExchange() {
	if r.Conn != nil {
		probe, err := r.Conn.Channel()
		if err != nil {
			log.Printf("Warning: could not open channel for delayed exchange: %v", err)
			return
		}
		err = probe.ExchangeDeclare(r.Cfg.DelayExchange, "x-delayed-message", true, false, false, false,
			amqp.Table{"x-delayed-type": "direct"})
		if err != nil {
			log.Printf("Warning: Delayed exchange not supported: %v", err)
			return
		}
		_ = probe.Close()
	}

	if err := r.Channel.ExchangeDeclare(r.Cfg.DelayExchange, "x-delayed-message", true, false, false, false,
		amqp.Table{"x-delayed-type": "direct"}); err != nil {
		log.Printf("Warning: Delayed exchange not supported: %v", err)
		return
	}
	if err := r.Channel.QueueBind(r.Cfg.OrderQueue, "", r.Cfg.DelayExchange, false, nil); err != nil {
		log.Printf("Warning: could not bind %s to %s: %v", r.Cfg.OrderQueue, r.Cfg.DelayExchange, err)
		return
	}

	r.mu.Lock()
	r.delayed = true
	r.mu.Unlock()
}

func newPublishing(evt models.OrderEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode order event: %w", err)
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         string(evt.Type),
		Body:         body,
	}, nil
}

// PublishOrderEvent sends evt to the order exchange. priority is capped at
// the queue's x-max-priority.
func (r *RabbitMQ) PublishOrderEvent(ctx context.Context, evt models.OrderEvent, priority uint8) error {
	msg, err := newPublishing(evt)
	if err != nil {
		return err
	}
	if limit := r.Cfg.MaxPriority; limit > 0 && int(priority) > limit {
		priority = uint8(limit)
	}
	msg.Priority = priority

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx, r.Cfg.OrderExchange, "", false, false, msg)
}

// PublishDelayedEvent sends evt through the delayed exchange so it reaches
// the order queue after delay.
func (r *RabbitMQ) PublishDelayedEvent(ctx context.Context, evt models.OrderEvent, delay time.Duration) error {
	msg, err := newPublishing(evt)
	if err != nil {
		return err
	}
	msg.Headers = amqp.Table{"x-delay": delay.Milliseconds()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.delayed {
		return ErrDelayUnsupported
	}
	return r.Channel.PublishWithContext(ctx, r.Cfg.DelayExchange, "", false, false, msg)
}

// ReportedReasonHeader carries the reason of a dead letter that was reported
// by an operator rather than rejected by the broker.
const ReportedReasonHeader = "x-reported-reason"

type deadLetterReport struct {
	OrderID    string    `json:"orderId"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reportedAt"`
}

// PublishDeadLetter routes a manually reported failure for orderID straight
// to the dead letter queue.
func (r *RabbitMQ) PublishDeadLetter(ctx context.Context, orderID, reason string) error {
	body, err := json.Marshal(deadLetterReport{OrderID: orderID, Reason: reason, ReportedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode dead letter report: %w", err)
	}
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Type:         "dead_letter_report",
		Headers:      amqp.Table{ReportedReasonHeader: reason},
		Body:         body,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Channel.PublishWithContext(ctx, r.DeadLetterExchange(), r.Cfg.DeadLetterQueue, false, false, msg)
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		if err := r.Channel.Close(); err != nil {
			log.Printf("Failed to close RabbitMQ channel: %v", err)
		}
	}
	if r.Conn != nil {
		if err := r.Conn.Close(); err != nil {
			log.Printf("Failed to close RabbitMQ connection: %v", err)
		}
	}
}
