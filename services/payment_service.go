package services

import (
	"context"
	"log"

	"coffee-shop/apperrors"
	"coffee-shop/models"
	"coffee-shop/paystack"
)

type InitializePaymentInput struct {
	Email   string `json:"email" validate:"required,email"`
	OrderID string `json:"orderId" validate:"required"`
}

type VerifyPaymentInput struct {
	Reference string `json:"reference" validate:"required"`
}

type orderPayments interface {
	Get(ctx context.Context, id string) (*models.Order, error)
	MarkPaid(ctx context.Context, id string) (*models.Order, error)
}

// PaymentService bridges orders and the payment processor.
type PaymentService struct {
	orders      orderPayments
	processor   PaymentProcessor
	callbackURL string
	// Observe, when set, receives the outcome of each processor call.
	Observe func(operation, outcome string)
}

func NewPaymentService(orders orderPayments, processor PaymentProcessor, callbackURL string) *PaymentService {
	return &PaymentService{orders: orders, processor: processor, callbackURL: callbackURL}
}

// Initialize opens a processor session charging the order total.
func (s *PaymentService) Initialize(ctx context.Context, email, orderID string) (*models.PaymentSession, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	auth, err := s.processor.InitializeTransaction(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      models.ToMinorUnits(order.Total),
		CallbackURL: s.callbackURL,
		Metadata:    paystack.Metadata{OrderID: order.ID},
	})
	if err != nil {
		s.observe("initialize", "error")
		log.Printf("Error initializing payment for order %s: %v", orderID, err)
		return nil, apperrors.Wrap(apperrors.KindUpstream, "Unable to initialize payment. Please try again later.", err)
	}

	s.observe("initialize", "success")
	log.Printf("Payment session initialized for email: %s, orderId: %s", email, orderID)
	return &models.PaymentSession{
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		Reference:        auth.Reference,
	}, nil
}

// Verify asks the processor for the outcome of reference and, on success,
// completes the order named in the processor's metadata.
func (s *PaymentService) Verify(ctx context.Context, reference string) (*models.PaymentVerification, error) {
	tx, err := s.processor.VerifyTransaction(ctx, reference)
	if err != nil {
		s.observe("verify", "error")
		log.Printf("Error verifying payment %s: %v", reference, err)
		return nil, apperrors.Wrap(apperrors.KindUpstream, "Unable to verify payment. Please try again later.", err)
	}

	switch tx.Status {
	case paystack.StatusSuccess:
	case paystack.StatusAbandoned:
		s.observe("verify", "abandoned")
		log.Printf("warn: payment %s was abandoned", reference)
		return nil, apperrors.New(apperrors.KindPaymentIncomplete, "Payment was not completed")
	default:
		s.observe("verify", "failed")
		log.Printf("warn: payment %s verification failed with status %q", reference, tx.Status)
		return nil, apperrors.New(apperrors.KindVerificationFailed, "Payment verification failed")
	}

	orderID, err := tx.OrderID()
	if err != nil {
		s.observe("verify", "error")
		log.Printf("Payment %s succeeded but carries no order id: %v", reference, err)
		return nil, apperrors.Wrap(apperrors.KindUpstream, "Unable to verify payment. Please try again later.", err)
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		s.observe("verify", "error")
		if apperrors.Is(err, apperrors.KindNotFound) {
			log.Printf("Payment %s references unknown order %s", reference, orderID)
		}
		return nil, err
	}
	// A charge for any other amount does not pay for the order.
	if tx.Amount != models.ToMinorUnits(order.Total) {
		s.observe("verify", "amount_mismatch")
		log.Printf("warn: payment %s amount %s differs from order %s total %s", reference, models.FromMinorUnits(tx.Amount), order.ID, order.Total)
		return nil, apperrors.New(apperrors.KindVerificationFailed, "Payment amount does not match order total")
	}

	if _, err := s.orders.MarkPaid(ctx, orderID); err != nil {
		s.observe("verify", "error")
		return nil, err
	}

	s.observe("verify", "success")
	log.Printf("Payment verified successfully: %s", reference)
	return &models.PaymentVerification{
		Status:      tx.Status,
		Reference:   tx.Reference,
		Amount:      models.FromMinorUnits(tx.Amount),
		Currency:    tx.Currency,
		OrderID:     orderID,
		PaymentDate: tx.PaidAt,
	}, nil
}

func (s *PaymentService) observe(operation, outcome string) {
	if s.Observe != nil {
		s.Observe(operation, outcome)
	}
}
