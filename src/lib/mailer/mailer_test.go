package mailer

import (
	"context"
	"errors"
	"galabook/src/lib"
	"galabook/src/models"
	"galabook/src/types"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type captureDispatcher struct {
	sent []*lib.SendMailInput
	err  error
}

func (d *captureDispatcher) Send(ctx context.Context, input *lib.SendMailInput) error {
	d.sent = append(d.sent, input)
	return d.err
}

func tableBooking() *models.Booking {
	return &models.Booking{
		ID:          uuid.New(),
		Type:        string(types.BOOKING_TABLE),
		Category:    "TABLE_10",
		Quantity:    1,
		TotalAmount: 1800,
		Currency:    "usd",
		Buyer:       &models.Buyer{Email: "ana@example.com", Name: "Ana <Reyes>"},
		Table:       &models.Table{Hash: "abc123"},
		InviteCodes: []*models.InviteCode{{Code: "K7PQ2MXA"}},
	}
}

func newTestNotifier(d Dispatcher, bucket string) *BookingNotifier {
	n := NewBookingNotifier(d, NotifierOptions{
		From:         "tickets@example.com",
		QRCodeBucket: bucket,
		ManageURL:    func(hash string) string { return "https://gala.example.com/manage/" + hash },
	})
	n.encodeQR = func(text string) ([]byte, error) { return []byte("qr:" + text), nil }
	return n
}

func TestBookingConfirmedAttachesQRCode(t *testing.T) {
	d := &captureDispatcher{}
	n := newTestNotifier(d, "")

	require.NoError(t, n.BookingConfirmed(context.Background(), tableBooking()))
	require.Len(t, d.sent, 1)
	msg := d.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.To)
	assert.Equal(t, "noreply", msg.FromName)
	assert.Equal(t, "Your table booking is confirmed", msg.Subject)
	assert.True(t, msg.Html)
	assert.Contains(t, msg.Body, "K7PQ2MXA")
	assert.Contains(t, msg.Body, "https://gala.example.com/manage/abc123")
	assert.Contains(t, msg.Body, "Ana &lt;Reyes&gt;")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "image/jpeg", msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("qr:https://gala.example.com/manage/abc123"), msg.Attachments[0].Data)
}

func TestBookingConfirmedLinksUploadedQRCode(t *testing.T) {
	d := &captureDispatcher{}
	n := newTestNotifier(d, "gala-assets")
	var bucket string
	n.upload = func(ctx context.Context, b, name, contentType string, data []byte) (*string, error) {
		bucket = b
		url := "https://s3.example.com/" + name
		return &url, nil
	}

	booking := tableBooking()
	require.NoError(t, n.BookingConfirmed(context.Background(), booking))
	assert.Equal(t, "gala-assets", bucket)
	require.Len(t, d.sent, 1)
	assert.Empty(t, d.sent[0].Attachments)
	assert.Contains(t, d.sent[0].Body, "https://s3.example.com/qrcodes/"+booking.ID.String()+".jpg")
}

func TestBookingConfirmedFallsBackToAttachment(t *testing.T) {
	d := &captureDispatcher{}
	n := newTestNotifier(d, "gala-assets")
	n.upload = func(ctx context.Context, b, name, contentType string, data []byte) (*string, error) {
		return nil, errors.New("access denied")
	}

	require.NoError(t, n.BookingConfirmed(context.Background(), tableBooking()))
	require.Len(t, d.sent, 1)
	assert.Len(t, d.sent[0].Attachments, 1)
}

func TestSeatBookingHasNoQRCode(t *testing.T) {
	d := &captureDispatcher{}
	n := newTestNotifier(d, "")
	booking := &models.Booking{
		ID:       uuid.New(),
		Type:     string(types.BOOKING_SEAT),
		Category: "SEAT",
		Quantity: 2,
		Buyer:    &models.Buyer{Email: "ben@example.com", Name: "Ben"},
	}

	require.NoError(t, n.BookingConfirmed(context.Background(), booking))
	require.Len(t, d.sent, 1)
	assert.Equal(t, "Your seat bookings are confirmed", d.sent[0].Subject)
	assert.Empty(t, d.sent[0].Attachments)
	assert.NotContains(t, d.sent[0].Body, "Manage your table")
}

func TestBookingConfirmedReportsDispatchErrors(t *testing.T) {
	d := &captureDispatcher{err: errors.New("smtp down")}
	n := newTestNotifier(d, "")
	assert.EqualError(t, n.BookingConfirmed(context.Background(), tableBooking()), "smtp down")
}

func TestBookingConfirmedRequiresBuyer(t *testing.T) {
	d := &captureDispatcher{}
	n := newTestNotifier(d, "")
	b := tableBooking()
	b.Buyer = nil
	assert.Error(t, n.BookingConfirmed(context.Background(), b))
	assert.Empty(t, d.sent)
}

func TestQueuePayload(t *testing.T) {
	body, err := QueuePayload(&lib.SendMailInput{
		From:    "tickets@example.com",
		To:      []string{"ana@example.com"},
		Subject: "Hello",
		Body:    "<p>Hi</p>",
		Html:    true,
		Attachments: []lib.Attachment{
			{Name: "qr.jpg", ContentType: "image/jpeg", Data: []byte("jpeg")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", gjson.Get(body, "to.0").String())
	assert.True(t, gjson.Get(body, "html").Bool())
	assert.Equal(t, "qr.jpg", gjson.Get(body, "attachments.0.name").String())
	assert.Equal(t, "anBlZw==", gjson.Get(body, "attachments.0.data").String())
}

func TestNewDispatcher(t *testing.T) {
	assert.IsType(t, SMTPDispatcher{}, NewDispatcher("", "q"))
	assert.IsType(t, SMTPDispatcher{}, NewDispatcher("carrier-pigeon", "q"))
	assert.IsType(t, SESDispatcher{}, NewDispatcher(TRANSPORT_SES, "q"))
	assert.Equal(t, QueueDispatcher{Queue: "BookingEmails"}, NewDispatcher(TRANSPORT_SQS, "BookingEmails"))
}
