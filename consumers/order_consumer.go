package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"coffee-shop/config"
	"coffee-shop/middlewares"
	"coffee-shop/models"
	"coffee-shop/rabbitmq"

	amqp "github.com/rabbitmq/amqp091-go"
)

type OrderCanceller interface {
	CancelIfPending(ctx context.Context, orderID string) (bool, error)
}

type Broadcaster interface {
	Broadcast(evt models.OrderEvent)
}

// OrderHandler reacts to order events taken off the order queue.
type OrderHandler struct {
	Orders OrderCanceller
	Hub    Broadcaster
}

// StartOrderConsumer consumes the order queue and the dead letter queue until
// ctx is cancelled or the channel closes.
func StartOrderConsumer(ctx context.Context, ch rabbitmq.Channel, cfg *config.Config, h *OrderHandler) error {
	if err := ch.Qos(10, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"coffee-shop", // consumer tag
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register order consumer: %w", err)
	}

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"coffee-shop-dlq", // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register dead letter consumer: %w", err)
	}

	go consume(ctx, msgs, func(msg amqp.Delivery) { h.ProcessOrderMessage(ctx, msg) })
	go consume(ctx, dlqMsgs, ProcessDeadLetterMessage)
	return nil
}

func consume(ctx context.Context, msgs <-chan amqp.Delivery, handle func(amqp.Delivery)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			handle(msg)
		}
	}
}

// ProcessOrderMessage handles one delivery. Malformed messages and failed
// handling are rejected without requeue so they land in the dead letter queue.
func (h *OrderHandler) ProcessOrderMessage(ctx context.Context, msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in message processing: %v", r)
			reject(msg)
		}
	}()

	var evt models.OrderEvent
	if err := json.Unmarshal(msg.Body, &evt); err != nil || evt.OrderID == "" || evt.Type == "" {
		log.Printf("Invalid message format: %s", msg.Body)
		reject(msg)
		return
	}

	log.Printf("Processing order event: ID=%s, Type=%s", evt.OrderID, evt.Type)

	switch evt.Type {
	case models.EventPaymentCheck:
		if err := h.handlePaymentCheck(ctx, evt); err != nil {
			log.Printf("Failed to check payment for order %s: %v", evt.OrderID, err)
			reject(msg)
			return
		}
	case models.EventCreated, models.EventStatusUpdated, models.EventPaid:
		h.broadcast(evt)
	default:
		log.Printf("Unknown event type: %s", evt.Type)
	}

	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to ack message %s: %v", msg.MessageId, err)
	}
}

// handlePaymentCheck cancels the order if it is still pending once the
// payment window has passed.
func (h *OrderHandler) handlePaymentCheck(ctx context.Context, evt models.OrderEvent) error {
	cancelled, err := h.Orders.CancelIfPending(ctx, evt.OrderID)
	if err != nil {
		return err
	}
	if cancelled {
		evt.Type = models.EventAutoCancelled
		evt.Status = models.StatusCancelled
		h.broadcast(evt)
	}
	return nil
}

func (h *OrderHandler) broadcast(evt models.OrderEvent) {
	if h.Hub != nil {
		h.Hub.Broadcast(evt)
	}
}

func ProcessDeadLetterMessage(msg amqp.Delivery) {
	log.Printf("Received dead letter (reason=%q): %s", deadLetterReason(msg.Headers), msg.Body)
	middlewares.RecordOrderOperation("dead_letter", true)

	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to ack dead letter %s: %v", msg.MessageId, err)
	}
}

// deadLetterReason prefers the broker's x-death record and falls back to the
// reason attached to an operator report.
func deadLetterReason(headers amqp.Table) string {
	if deaths, ok := headers["x-death"].([]interface{}); ok && len(deaths) > 0 {
		if death, ok := deaths[0].(amqp.Table); ok {
			if reason, ok := death["reason"].(string); ok {
				return reason
			}
		}
	}
	reason, _ := headers[rabbitmq.ReportedReasonHeader].(string)
	return reason
}

func reject(msg amqp.Delivery) {
	if err := msg.Nack(false, false); err != nil {
		log.Printf("Failed to nack message %s: %v", msg.MessageId, err)
	}
}
