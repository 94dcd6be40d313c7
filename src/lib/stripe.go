package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"galabook/src/bookings"
	"log"
	"math"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	if apiKey == "" {
		return nil
	}
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// StripeGateway opens hosted Checkout Sessions for bookings.
type StripeGateway struct {
	client        *stripe.Client
	allowInsecure bool
}

func NewStripeGateway(c *stripe.Client, allowInsecure bool) *StripeGateway {
	return &StripeGateway{client: c, allowInsecure: allowInsecure}
}

// CheckPublicURL rejects URLs the gateway cannot reach: anything that is not
// https or that points at a loopback or private host.
func CheckPublicURL(raw string, allowInsecure bool) error {
	if allowInsecure {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: invalid URL %q", bookings.ErrPaymentConfiguration, raw)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: %s must use https", bookings.ErrPaymentConfiguration, u.Host)
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("%w: %s is not publicly reachable", bookings.ErrPaymentConfiguration, host)
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified()) {
		return fmt.Errorf("%w: %s is not publicly reachable", bookings.ErrPaymentConfiguration, host)
	}
	return nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (g *StripeGateway) CreatePayment(ctx context.Context, req bookings.PaymentRequest) (*bookings.PaymentSession, error) {
	if g.client == nil {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is not set", bookings.ErrPaymentConfiguration)
	}
	for _, u := range []string{req.RedirectURL, req.CancelURL, req.WebhookURL} {
		if err := CheckPublicURL(u, g.allowInsecure); err != nil {
			return nil, err
		}
	}

	metadata := map[string]string{"bookingId": req.ReferenceID}
	piParams := &stripe.CheckoutSessionCreatePaymentIntentDataParams{}
	for k, v := range metadata {
		piParams.AddMetadata(k, v)
	}
	params := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		UIMode:            stripe.String("hosted"),
		SuccessURL:        stripe.String(req.RedirectURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.ReferenceID),
		CustomerEmail:     stripe.String(req.BuyerEmail),
		PaymentIntentData: piParams,
		Metadata:          metadata,
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(toMinorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.Description),
						Description: stripe.String(fmt.Sprintf("Booking for %s", req.BuyerName)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.SetIdempotencyKey(fmt.Sprintf("booking-%s", req.ReferenceID))

	cs, err := g.client.V1CheckoutSessions.Create(ctx, params)
	if err != nil {
		log.Printf("[Stripe] Error creating CheckoutSession for booking %s: %s\n", req.ReferenceID, err.Error())
		return nil, err
	}
	log.Printf("[Stripe] CheckoutSessionID: %s\n", cs.ID)
	return &bookings.PaymentSession{RedirectURL: cs.URL, Reference: cs.ID}, nil
}

// PaymentStatus reports a Checkout Session in the reconciler's vocabulary.
func (g *StripeGateway) PaymentStatus(ctx context.Context, reference string) (string, error) {
	if g.client == nil {
		return "", bookings.ErrPaymentConfiguration
	}
	cs, err := g.client.V1CheckoutSessions.Retrieve(ctx, reference, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return "", err
	}
	return checkoutSessionStatus(cs), nil
}

func (g *StripeGateway) ResumeURL(ctx context.Context, reference string) (string, error) {
	if g.client == nil {
		return "", bookings.ErrPaymentConfiguration
	}
	cs, err := g.client.V1CheckoutSessions.Retrieve(ctx, reference, &stripe.CheckoutSessionRetrieveParams{})
	if err != nil {
		return "", err
	}
	return resumableURL(cs), nil
}

func resumableURL(cs *stripe.CheckoutSession) string {
	if cs.Status != stripe.CheckoutSessionStatusOpen {
		return ""
	}
	return cs.URL
}

func checkoutSessionStatus(cs *stripe.CheckoutSession) string {
	switch {
	case cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return "paid"
	case cs.Status == stripe.CheckoutSessionStatusExpired:
		return "expired"
	}
	return string(cs.Status)
}

// ParseCheckoutEvent turns a verified Checkout Session event into a payment
// update. Events that carry no payment outcome return nil.
func ParseCheckoutEvent(event stripe.Event) (*bookings.PaymentUpdate, error) {
	var status string
	switch event.Type {
	case "checkout.session.completed":
	case "checkout.session.async_payment_succeeded":
		status = "succeeded"
	case "checkout.session.async_payment_failed":
		status = "failed"
	case "checkout.session.expired":
		status = "expired"
	default:
		return nil, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("error parsing CheckoutSession: %w", err)
	}
	if status == "" {
		status = checkoutSessionStatus(&cs)
	}
	ref := cs.ClientReferenceID
	if ref == "" {
		ref = cs.Metadata["bookingId"]
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("CheckoutSession %s has no booking reference", cs.ID)
	}
	return &bookings.PaymentUpdate{BookingID: id, Reference: cs.ID, Status: status}, nil
}

// VerifyWebhook checks the Stripe-Signature header against secret and
// decodes the event.
func VerifyWebhook(payload []byte, signature, secret string) (stripe.Event, error) {
	if secret == "" {
		return stripe.Event{}, fmt.Errorf("%w: webhook secret is not set", bookings.ErrPaymentConfiguration)
	}
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
