package lib

import (
	"context"
	"encoding/json"
	"galabook/src/bookings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

func TestCheckPublicURL(t *testing.T) {
	for raw, ok := range map[string]bool{
		"https://gala.example.com/bookings/1/payment": true,
		"https://api.gala.example.com/api/v1/webhook":  true,
		"http://gala.example.com/bookings/1/payment":  false,
		"https://localhost:3000/return":               false,
		"https://app.localhost/return":                false,
		"https://127.0.0.1/return":                    false,
		"https://10.0.0.12/return":                    false,
		"https://printer.local/return":                false,
		"not a url":                                   false,
		"":                                            false,
	} {
		err := CheckPublicURL(raw, false)
		if ok {
			assert.NoError(t, err, raw)
			continue
		}
		assert.ErrorIs(t, err, bookings.ErrPaymentConfiguration, raw)
	}

	assert.NoError(t, CheckPublicURL("http://localhost:3000/return", true))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(100000), toMinorUnits(1000))
	assert.Equal(t, int64(8750), toMinorUnits(87.5))
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
}

func TestCreatePaymentRejectsPrivateURLs(t *testing.T) {
	g := NewStripeGateway(stripe.NewClient("sk_test_123"), false)

	_, err := g.CreatePayment(context.Background(), bookings.PaymentRequest{
		Amount:      100,
		Currency:    "usd",
		ReferenceID: uuid.NewString(),
		RedirectURL: "http://localhost:3000/bookings/1/payment",
		CancelURL:   "http://localhost:3000/bookings/1/payment?status=cancelled",
		WebhookURL:  "http://localhost:8080/api/v1/webhook/stripe",
	})
	assert.ErrorIs(t, err, bookings.ErrPaymentConfiguration)
}

func TestCreatePaymentWithoutKey(t *testing.T) {
	g := NewStripeGateway(nil, true)

	_, err := g.CreatePayment(context.Background(), bookings.PaymentRequest{Amount: 100})
	assert.ErrorIs(t, err, bookings.ErrPaymentConfiguration)
}

func TestResumableURL(t *testing.T) {
	open := &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusOpen, URL: "https://checkout.stripe.com/c/pay/cs_test_1"}
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", resumableURL(open))

	expired := &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusExpired, URL: "https://checkout.stripe.com/c/pay/cs_test_2"}
	assert.Empty(t, resumableURL(expired))

	complete := &stripe.CheckoutSession{Status: stripe.CheckoutSessionStatusComplete}
	assert.Empty(t, resumableURL(complete))
}

func TestResumeURLWithoutKey(t *testing.T) {
	g := NewStripeGateway(nil, true)

	_, err := g.ResumeURL(context.Background(), "cs_test_1")
	assert.ErrorIs(t, err, bookings.ErrPaymentConfiguration)
}

func checkoutEvent(t *testing.T, kind string, session map[string]any) stripe.Event {
	raw, err := json.Marshal(session)
	require.NoError(t, err)
	return stripe.Event{Type: stripe.EventType(kind), Data: &stripe.EventData{Raw: raw}}
}

func TestParseCheckoutEvent(t *testing.T) {
	id := uuid.New()

	upd, err := ParseCheckoutEvent(checkoutEvent(t, "checkout.session.completed", map[string]any{
		"id":                  "cs_test_1",
		"client_reference_id": id.String(),
		"status":              "complete",
		"payment_status":      "paid",
	}))
	require.NoError(t, err)
	require.NotNil(t, upd)
	assert.Equal(t, id, upd.BookingID)
	assert.Equal(t, "cs_test_1", upd.Reference)
	assert.Equal(t, bookings.PaymentSucceeded, bookings.NormalizePaymentStatus(upd.Status))

	upd, err = ParseCheckoutEvent(checkoutEvent(t, "checkout.session.completed", map[string]any{
		"id":             "cs_test_2",
		"metadata":       map[string]string{"bookingId": id.String()},
		"status":         "complete",
		"payment_status": "unpaid",
	}))
	require.NoError(t, err)
	assert.Equal(t, id, upd.BookingID)
	assert.Equal(t, bookings.PaymentUnknown, bookings.NormalizePaymentStatus(upd.Status))

	upd, err = ParseCheckoutEvent(checkoutEvent(t, "checkout.session.expired", map[string]any{
		"id":                  "cs_test_3",
		"client_reference_id": id.String(),
		"status":              "expired",
	}))
	require.NoError(t, err)
	assert.Equal(t, bookings.PaymentFailed, bookings.NormalizePaymentStatus(upd.Status))

	upd, err = ParseCheckoutEvent(checkoutEvent(t, "customer.created", map[string]any{"id": "cus_1"}))
	assert.NoError(t, err)
	assert.Nil(t, upd)

	_, err = ParseCheckoutEvent(checkoutEvent(t, "checkout.session.completed", map[string]any{"id": "cs_test_4"}))
	assert.Error(t, err)
}

func TestVerifyWebhook(t *testing.T) {
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_test_1"}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_test",
		Timestamp: time.Now(),
	})

	event, err := VerifyWebhook(signed.Payload, signed.Header, "whsec_test")
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, stripe.EventType("checkout.session.expired"), event.Type)

	_, err = VerifyWebhook(signed.Payload, signed.Header, "whsec_other")
	assert.Error(t, err)

	_, err = VerifyWebhook(signed.Payload, signed.Header, "")
	assert.ErrorIs(t, err, bookings.ErrPaymentConfiguration)
}
