package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"coffee-shop/apperrors"
	"coffee-shop/models"
	"coffee-shop/paystack"
	"coffee-shop/repository/memstore"
	"coffee-shop/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var ctx = context.Background()

type published struct {
	evt      models.OrderEvent
	priority uint8
	delay    time.Duration
}

type recorder struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (r *recorder) PublishOrderEvent(_ context.Context, evt models.OrderEvent, priority uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{evt: evt, priority: priority})
	return r.err
}

func (r *recorder) PublishDelayedEvent(_ context.Context, evt models.OrderEvent, delay time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, published{evt: evt, delay: delay})
	return r.err
}

type stubProcessor struct {
	req       paystack.InitializeRequest
	initErr   error
	tx        paystack.Transaction
	verifyErr error
}

func (p *stubProcessor) InitializeTransaction(_ context.Context, req paystack.InitializeRequest) (*paystack.Authorization, error) {
	p.req = req
	if p.initErr != nil {
		return nil, p.initErr
	}
	return &paystack.Authorization{AuthorizationURL: "https://pay.test/x", AccessCode: "x", Reference: "ref"}, nil
}

func (p *stubProcessor) VerifyTransaction(_ context.Context, reference string) (*paystack.Transaction, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	tx := p.tx
	tx.Reference = reference
	return &tx, nil
}

func newAuth(store *memstore.Store) *AuthService {
	s := NewAuthService(store.Users(), "test-secret", time.Hour)
	s.cost = bcrypt.MinCost
	return s
}

func addCoffee(t *testing.T, coffees *CoffeeService, name string, price float64) *models.Coffee {
	t.Helper()
	coffee, err := coffees.Create(ctx, CreateCoffeeInput{Name: name, Description: name, Price: &price})
	require.NoError(t, err)
	return coffee
}

func TestRegisterNormalizesEmail(t *testing.T) {
	auth := newAuth(memstore.New())

	user, err := auth.Register(ctx, RegisterInput{Name: " Ann ", Email: " Ann@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
}

func TestLogin(t *testing.T) {
	auth := newAuth(memstore.New())
	user, err := auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	token, err := auth.Login(ctx, LoginInput{Email: "ANN@example.com", Password: "secret1"})
	require.NoError(t, err)
	claims, err := utils.ParseToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, wrong := auth.Login(ctx, LoginInput{Email: "ann@example.com", Password: "secret2"})
	_, unknown := auth.Login(ctx, LoginInput{Email: "bob@example.com", Password: "secret1"})
	assert.True(t, apperrors.Is(wrong, apperrors.KindUnauthorized))
	assert.Equal(t, wrong.Error(), unknown.Error())
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	store := memstore.New()
	auth := newAuth(store)
	in := RegisterInput{Name: "Root", Email: "root@example.com", Password: "secret1"}

	require.NoError(t, auth.EnsureAdmin(ctx, in))
	require.NoError(t, auth.EnsureAdmin(ctx, in))

	admin, err := store.Users().FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestCoffeeUpdateIsPartial(t *testing.T) {
	coffees := NewCoffeeService(memstore.New().Coffees())
	latte := addCoffee(t, coffees, "Latte", 3.499)
	assert.Equal(t, "3.5", latte.Price.String())

	price := 4.0
	updated, err := coffees.Update(ctx, latte.ID, UpdateCoffeeInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Latte", updated.Name)
	assert.True(t, decimal.NewFromInt(4).Equal(updated.Price))

	_, err = coffees.Update(ctx, "missing", UpdateCoffeeInput{Price: &price})
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	removed, err := coffees.Delete(ctx, latte.ID)
	require.NoError(t, err)
	assert.Equal(t, "Latte", removed.Name)
	_, err = coffees.Get(ctx, latte.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCartService(t *testing.T) {
	store := memstore.New()
	coffees := NewCoffeeService(store.Coffees())
	carts := NewCartService(store.Carts(), store.Coffees())
	latte := addCoffee(t, coffees, "Latte", 3)

	_, err := carts.Get(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = carts.AddItem(ctx, "u1", latte.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = carts.AddItem(ctx, "u1", "missing", 1)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, err = carts.AddItem(ctx, "u1", latte.ID, 2)
	require.NoError(t, err)
	cart, err := carts.AddItem(ctx, "u1", latte.ID, 3)
	require.NoError(t, err)
	line, ok := cart.Item(latte.ID)
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)

	_, err = carts.RemoveItem(ctx, "u1", "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	result, err := carts.Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, result.Cart.Items, 1)

	_, err = carts.Checkout(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
}

func TestCartConcurrentAdds(t *testing.T) {
	store := memstore.New()
	latte := addCoffee(t, NewCoffeeService(store.Coffees()), "Latte", 3)
	carts := NewCartService(store.Carts(), store.Coffees())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = carts.AddItem(ctx, "u1", latte.ID, 1)
		}()
	}
	wg.Wait()

	cart, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

type orderFixture struct {
	store  *memstore.Store
	orders *OrderService
	events *recorder
	latte  *models.Coffee
}

func newOrderFixture(t *testing.T) *orderFixture {
	store := memstore.New()
	events := &recorder{}
	f := &orderFixture{
		store:  store,
		orders: NewOrderService(store.Orders(), events, time.Minute),
		events: events,
	}
	f.latte = addCoffee(t, NewCoffeeService(store.Coffees()), "Latte", 10)
	return f
}

func (f *orderFixture) place(t *testing.T, userID string, quantity int) *models.Order {
	t.Helper()
	_, err := f.store.Carts().AddItem(ctx, userID, f.latte.ID, quantity)
	require.NoError(t, err)
	order, err := f.orders.Create(ctx, userID)
	require.NoError(t, err)
	return order
}

func TestOrderCreate(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.Create(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	order := f.place(t, "u1", 3)
	assert.Equal(t, "30", order.Total.String())
	assert.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Latte", order.Items[0].Name)

	cart, err := f.store.Carts().GetByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.orders.Create(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	require.Len(t, f.events.sent, 2)
	assert.Equal(t, models.EventCreated, f.events.sent[0].evt.Type)
	assert.Equal(t, uint8(5), f.events.sent[0].priority)
	assert.Equal(t, models.EventPaymentCheck, f.events.sent[1].evt.Type)
	assert.Equal(t, time.Minute, f.events.sent[1].delay)
}

func TestOrderCreateHighValuePriority(t *testing.T) {
	f := newOrderFixture(t)
	f.place(t, "u1", 101)
	assert.Equal(t, uint8(9), f.events.sent[0].priority)
}

func TestOrderCreateSurvivesPublishFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.events.err = errors.New("broker down")

	order := f.place(t, "u1", 1)

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestOrderCreateWithoutPublisher(t *testing.T) {
	store := memstore.New()
	latte := addCoffee(t, NewCoffeeService(store.Coffees()), "Latte", 2)
	orders := NewOrderService(store.Orders(), nil, time.Minute)

	_, err := store.Carts().AddItem(ctx, "u1", latte.ID, 1)
	require.NoError(t, err)
	_, err = orders.Create(ctx, "u1")
	assert.NoError(t, err)
}

func TestOrderListByUser(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.orders.ListByUser(ctx, "u1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	f.place(t, "u1", 1)
	f.place(t, "u2", 1)

	mine, err := f.orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrderListAllEmpty(t *testing.T) {
	f := newOrderFixture(t)
	all, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestOrderUpdateStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, "u1", 1)

	_, err := f.orders.UpdateStatus(ctx, order.ID, "shipped")
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = f.orders.UpdateStatus(ctx, "missing", models.StatusCompleted)
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	updated, err := f.orders.UpdateStatus(ctx, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	last := f.events.sent[len(f.events.sent)-1]
	assert.Equal(t, models.EventStatusUpdated, last.evt.Type)
	assert.Equal(t, uint8(8), last.priority)

	updated, err = f.orders.UpdateStatus(ctx, order.ID, models.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
}

func TestCancelIfPending(t *testing.T) {
	f := newOrderFixture(t)
	pending := f.place(t, "u1", 1)
	paid := f.place(t, "u1", 1)
	_, err := f.orders.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)

	cancelled, err := f.orders.CancelIfPending(ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, cancelled)

	cancelled, err = f.orders.CancelIfPending(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, cancelled)

	stored, err := f.orders.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestPaymentInitialize(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, "u1", 2)
	processor := &stubProcessor{}
	payments := NewPaymentService(f.orders, processor, "https://shop.test/cb")

	var outcomes []string
	payments.Observe = func(op, outcome string) { outcomes = append(outcomes, op+":"+outcome) }

	session, err := payments.Initialize(ctx, "ann@example.com", order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ref", session.Reference)
	assert.Equal(t, int64(2000), processor.req.Amount)
	assert.Equal(t, order.ID, processor.req.Metadata.OrderID)

	_, err = payments.Initialize(ctx, "ann@example.com", "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	processor.initErr = errors.New("dial tcp: refused")
	_, err = payments.Initialize(ctx, "ann@example.com", order.ID)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))

	assert.Equal(t, []string{"initialize:success", "initialize:error"}, outcomes)
}

func TestPaymentVerify(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, "u1", 2)
	processor := &stubProcessor{}
	payments := NewPaymentService(f.orders, processor, "")
	metadata := json.RawMessage(`{"orderId":"` + order.ID + `"}`)

	status := func() models.OrderStatus {
		o, err := f.orders.Get(ctx, order.ID)
		require.NoError(t, err)
		return o.Status
	}

	processor.tx = paystack.Transaction{Status: paystack.StatusAbandoned, Metadata: metadata}
	_, err := payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindPaymentIncomplete))

	processor.tx = paystack.Transaction{Status: paystack.StatusFailed, Metadata: metadata}
	_, err = payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindVerificationFailed))

	processor.tx = paystack.Transaction{Status: paystack.StatusSuccess}
	_, err = payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	assert.Equal(t, models.StatusPending, status())

	processor.tx = paystack.Transaction{Status: paystack.StatusSuccess, Metadata: json.RawMessage(`{"orderId":"missing"}`)}
	_, err = payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	processor.tx = paystack.Transaction{Status: paystack.StatusSuccess, Amount: 2000, Currency: "NGN", PaidAt: "2025-01-01T00:00:00Z", Metadata: metadata}
	result, err := payments.Verify(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", result.Reference)
	assert.Equal(t, "20", result.Amount.String())
	assert.Equal(t, order.ID, result.OrderID)
	assert.Equal(t, models.StatusCompleted, status())

	last := f.events.sent[len(f.events.sent)-1]
	assert.Equal(t, models.EventPaid, last.evt.Type)
	assert.Equal(t, uint8(7), last.priority)

	processor.verifyErr = errors.New("timeout")
	_, err = payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
}

func TestPaymentVerifyRejectsAmountMismatch(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t, "u1", 2)
	processor := &stubProcessor{}
	payments := NewPaymentService(f.orders, processor, "")

	var outcomes []string
	payments.Observe = func(op, outcome string) { outcomes = append(outcomes, op+":"+outcome) }

	processor.tx = paystack.Transaction{
		Status:   paystack.StatusSuccess,
		Amount:   100,
		Currency: "NGN",
		Metadata: json.RawMessage(`{"orderId":"` + order.ID + `"}`),
	}
	_, err := payments.Verify(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.KindVerificationFailed))
	assert.Equal(t, []string{"verify:amount_mismatch"}, outcomes)

	stored, err := f.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	for _, sent := range f.events.sent {
		assert.NotEqual(t, models.EventPaid, sent.evt.Type)
	}
}
