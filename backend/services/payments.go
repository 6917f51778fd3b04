package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/zloomo02/LMS/backend/models"
)

// ErrInvalidSignature marks an inbound event that failed signature
// verification. These must be rejected at the transport boundary.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

type PaymentEventType string

const (
	PaymentSucceeded PaymentEventType = "payment.succeeded"
	PaymentFailed    PaymentEventType = "payment.failed"
	PaymentIgnored   PaymentEventType = "payment.ignored"
)

// PaymentEvent is a processor event reduced to what the reconciler needs:
// the outcome and the purchase the processor's correlation token resolves to.
type PaymentEvent struct {
	Type       PaymentEventType
	RawType    string
	PurchaseID string
}

// PaymentGateway is the outbound port to the payment processor.
type PaymentGateway interface {
	// CreateCheckoutSession opens a payment session for the purchase and
	// returns the URL the buyer is redirected to. The purchase id rides
	// along as opaque metadata and comes back on the webhook.
	CreateCheckoutSession(course *models.Course, purchaseID string, amount float64, origin string) (string, error)

	// ParseEvent verifies the raw webhook payload against its signature and
	// resolves it to a PaymentEvent. Returns ErrInvalidSignature when the
	// payload cannot be authenticated.
	ParseEvent(payload []byte, signature string) (*PaymentEvent, error)
}

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct {
	webhookSecret string
	currency      string
}

func NewStripeGateway(secretKey, webhookSecret, currency string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{
		webhookSecret: webhookSecret,
		currency:      strings.ToLower(currency),
	}
}

func (g *StripeGateway) CreateCheckoutSession(course *models.Course, purchaseID string, amount float64, origin string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(origin + "/loading/my-enrollments"),
		CancelURL:  stripe.String(origin + "/"),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(course.Title),
					},
					UnitAmount: stripe.Int64(int64(math.Round(amount * 100))),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata("purchaseId", purchaseID)

	s, err := session.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*PaymentEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return &PaymentEvent{Type: PaymentIgnored, RawType: string(event.Type)}, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, fmt.Errorf("could not decode payment intent: %w", err)
	}

	purchaseID, err := g.purchaseIDForIntent(intent.ID)
	if err != nil {
		return nil, err
	}

	out := &PaymentEvent{RawType: string(event.Type), PurchaseID: purchaseID}
	if event.Type == "payment_intent.succeeded" {
		out.Type = PaymentSucceeded
	} else {
		out.Type = PaymentFailed
	}
	return out, nil
}

// purchaseIDForIntent resolves the correlation token: the checkout session
// that owns the payment intent echoes back the purchase id we stored in its
// metadata when the session was created.
func (g *StripeGateway) purchaseIDForIntent(intentID string) (string, error) {
	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(intentID),
	}
	iter := session.List(params)
	for iter.Next() {
		s := iter.CheckoutSession()
		if id, ok := s.Metadata["purchaseId"]; ok && id != "" {
			return id, nil
		}
	}
	if err := iter.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no checkout session with purchase metadata for payment intent %s", intentID)
}
