package service

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/refund"

	"parkfacil/internal/db"
	"parkfacil/internal/pricing"
	"parkfacil/internal/repository"
)

// PaymentService creates the payment record for a completed reservation and
// drives its pending -> paid -> refunded transitions. Stripe checkout is the
// online collection path; mark-as-paid covers on-site cash.
type PaymentService struct {
	Repo *repository.PaymentRepository
}

func NewPaymentService(repo *repository.PaymentRepository) *PaymentService {
	return &PaymentService{Repo: repo}
}

// RecordForReservation opens a pending payment covering the reservation's
// computed amount. Called once, at completion.
func (s *PaymentService) RecordForReservation(res *db.Reservation) (*db.Payment, error) {
	if res.AmountCents == nil {
		return nil, fmt.Errorf("reservation %s has no billed amount", res.Code)
	}
	payment := &db.Payment{
		ReservationID: res.ID,
		Reference:     uuid.NewString(),
		AmountCents:   *res.AmountCents,
		Status:        db.PaymentPending,
	}
	if err := s.Repo.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *PaymentService) Get(id int) (*db.Payment, error) {
	return s.Repo.Get(id)
}

func (s *PaymentService) GetByReservation(reservationID int) (*db.Payment, error) {
	return s.Repo.GetByReservation(reservationID)
}

func (s *PaymentService) MarkPaid(id int) (*db.Payment, error) {
	if err := s.Repo.MarkPaid(id); err != nil {
		return nil, err
	}
	return s.Repo.Get(id)
}

// CheckoutLink creates a Stripe checkout session for a pending payment and
// returns its URL.
func (s *PaymentService) CheckoutLink(paymentID int, customerEmail string) (string, error) {
	payment, err := s.Repo.Get(paymentID)
	if err != nil {
		return "", err
	}
	baseURL := os.Getenv("CHECKOUT_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("brl"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Parking fee %s (%s)", payment.Reference, pricing.FormatCents(payment.AmountCents))),
					},
					UnitAmount: stripe.Int64(payment.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(baseURL + "/payments/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(baseURL + "/payments/cancelled?session_id={CHECKOUT_SESSION_ID}"),
		CustomerEmail: stripe.String(customerEmail),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("error creating checkout session: %w", err)
	}
	if err := s.Repo.SetStripeSession(payment.ID, sess.ID); err != nil {
		log.Printf("Could not store stripe session %s for payment %d: %v", sess.ID, payment.ID, err)
	}
	return sess.URL, nil
}

// Refund reverses a paid payment through Stripe and marks the record.
func (s *PaymentService) Refund(paymentID int) error {
	payment, err := s.Repo.Get(paymentID)
	if err != nil {
		return err
	}
	if payment.StripeSessionID != "" {
		sess, err := session.Get(payment.StripeSessionID, nil)
		if err != nil {
			return fmt.Errorf("error loading stripe session: %w", err)
		}
		if sess.PaymentIntent == nil || sess.PaymentIntent.ID == "" {
			return fmt.Errorf("no payment intent on session %s", payment.StripeSessionID)
		}
		if _, err := refund.New(&stripe.RefundParams{
			PaymentIntent: stripe.String(sess.PaymentIntent.ID),
		}); err != nil {
			return fmt.Errorf("error creating refund: %w", err)
		}
	}
	return s.Repo.MarkRefunded(payment.ID)
}
