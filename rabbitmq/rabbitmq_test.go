package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coffee-shop/config"
	"coffee-shop/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type binding struct {
	queue, key, exchange string
}

type fakeChannel struct {
	exchanges  map[string]string
	queues     map[string]amqp.Table
	bindings   []binding
	published  []published
	declareErr map[string]error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{exchanges: map[string]string{}, queues: map[string]amqp.Table{}, declareErr: map[string]error{}}
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	if err := f.declareErr[name]; err != nil {
		return err
	}
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	f.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, binding{name, key, exchange})
	return nil
}

func (f *fakeChannel) Qos(int, int, bool) error { return nil }

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return make(chan amqp.Delivery), nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.published = append(f.published, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		OrderExchange:   "orders_exchange",
		OrderQueue:      "orders_queue",
		DeadLetterQueue: "dead_letter_queue",
		DelayExchange:   "delay_exchange",
		MaxPriority:     10,
	}
}

func TestSetupQueues(t *testing.T) {
	ch := newFakeChannel()
	r := &RabbitMQ{Channel: ch, Cfg: testConfig()}

	require.NoError(t, r.SetupQueues())

	assert.Equal(t, "fanout", ch.exchanges["orders_exchange"])
	assert.Equal(t, "direct", ch.exchanges["dead_letter_queue_exchange"])
	assert.Equal(t, "x-delayed-message", ch.exchanges["delay_exchange"])
	assert.Equal(t, 10, ch.queues["orders_queue"]["x-max-priority"])
	assert.Equal(t, "dead_letter_queue", ch.queues["orders_queue"]["x-dead-letter-routing-key"])
	assert.Contains(t, ch.bindings, binding{"dead_letter_queue", "dead_letter_queue", "dead_letter_queue_exchange"})
	assert.Contains(t, ch.bindings, binding{"orders_queue", "", "orders_exchange"})
	assert.Contains(t, ch.bindings, binding{"orders_queue", "", "delay_exchange"})
}

func TestPublishOrderEvent(t *testing.T) {
	ch := newFakeChannel()
	r := &RabbitMQ{Channel: ch, Cfg: testConfig()}

	evt := models.OrderEvent{OrderID: "o1", UserID: "u1", Type: models.EventCreated, Status: models.StatusPending, Total: decimal.NewFromInt(1200)}
	require.NoError(t, r.PublishOrderEvent(context.Background(), evt, 9))
	require.NoError(t, r.PublishOrderEvent(context.Background(), evt, 200))

	require.Len(t, ch.published, 2)
	first := ch.published[0]
	assert.Equal(t, "orders_exchange", first.exchange)
	assert.Equal(t, uint8(9), first.msg.Priority)
	assert.Equal(t, "application/json", first.msg.ContentType)
	assert.Equal(t, "created", first.msg.Type)
	assert.Equal(t, amqp.Persistent, first.msg.DeliveryMode)

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(first.msg.Body, &decoded))
	assert.Equal(t, "o1", decoded.OrderID)
	assert.True(t, decoded.Total.Equal(decimal.NewFromInt(1200)))

	assert.Equal(t, uint8(10), ch.published[1].msg.Priority)
}

func TestPublishDelayedEvent(t *testing.T) {
	ch := newFakeChannel()
	r := &RabbitMQ{Channel: ch, Cfg: testConfig()}
	evt := models.OrderEvent{OrderID: "o1", Type: models.EventPaymentCheck}

	err := r.PublishDelayedEvent(context.Background(), evt, time.Minute)
	assert.ErrorIs(t, err, ErrDelayUnsupported)

	require.NoError(t, r.SetupQueues())
	require.NoError(t, r.PublishDelayedEvent(context.Background(), evt, 15*time.Minute))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "delay_exchange", ch.published[0].exchange)
	assert.Equal(t, int64(900000), ch.published[0].msg.Headers["x-delay"])
}

func TestDelayedExchangeUnsupported(t *testing.T) {
	ch := newFakeChannel()
	ch.declareErr["delay_exchange"] = errors.New("NOT_FOUND - unknown exchange type")
	r := &RabbitMQ{Channel: ch, Cfg: testConfig()}

	require.NoError(t, r.SetupQueues())
	err := r.PublishDelayedEvent(context.Background(), models.OrderEvent{OrderID: "o1"}, time.Minute)
	assert.ErrorIs(t, err, ErrDelayUnsupported)
	assert.NotContains(t, ch.bindings, binding{"orders_queue", "", "delay_exchange"})
}

func TestPublishDeadLetter(t *testing.T) {
	ch := newFakeChannel()
	r := &RabbitMQ{Channel: ch, Cfg: testConfig()}

	require.NoError(t, r.PublishDeadLetter(context.Background(), "o1", "consumer crashed"))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, "dead_letter_queue_exchange", msg.exchange)
	assert.Equal(t, "dead_letter_queue", msg.key)
	assert.Equal(t, "consumer crashed", msg.msg.Headers[ReportedReasonHeader])

	var report map[string]any
	require.NoError(t, json.Unmarshal(msg.msg.Body, &report))
	assert.Equal(t, "o1", report["orderId"])
	assert.Equal(t, "consumer crashed", report["reason"])
}
