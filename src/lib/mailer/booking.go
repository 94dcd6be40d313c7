package mailer

import (
	"context"
	"errors"
	"fmt"
	"galabook/src/lib"
	awslib "galabook/src/lib/aws"
	"galabook/src/models"
	"html"
	"log"
	"strings"
)

type qrEncoder func(text string) ([]byte, error)
type assetUploader func(ctx context.Context, bucket, name, contentType string, data []byte) (*string, error)

type NotifierOptions struct {
	From     string
	FromName string
	// QRCodeBucket, when set, stores the QR image in S3 and links it
	// instead of attaching it.
	QRCodeBucket string
	ManageURL    func(hash string) string
}

// BookingNotifier sends the confirmation email for a paid booking.
type BookingNotifier struct {
	dispatcher Dispatcher
	opts       NotifierOptions
	encodeQR   qrEncoder
	upload     assetUploader
}

func NewBookingNotifier(d Dispatcher, opts NotifierOptions) *BookingNotifier {
	if opts.FromName == "" {
		opts.FromName = "noreply"
	}
	return &BookingNotifier{
		dispatcher: d,
		opts:       opts,
		encodeQR:   lib.QRCodeJPEG,
		upload:     awslib.S3UploadAsset,
	}
}

func (n *BookingNotifier) BookingConfirmed(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.Buyer == nil {
		return errors.New("booking has no buyer to notify")
	}
	input := &lib.SendMailInput{
		From:     n.opts.From,
		FromName: n.opts.FromName,
		To:       []string{booking.Buyer.Email},
		Subject:  confirmationSubject(booking),
		Html:     true,
	}

	var manageLink, qrLink string
	if booking.Table != nil && n.opts.ManageURL != nil {
		manageLink = n.opts.ManageURL(booking.Table.Hash)
		qr, err := n.encodeQR(manageLink)
		if err != nil {
			log.Printf("[Mailer] Could not render QR code for booking %s: %s\n", booking.ID.String(), err.Error())
		} else if n.opts.QRCodeBucket != "" {
			name := fmt.Sprintf("qrcodes/%s.jpg", booking.ID.String())
			url, err := n.upload(ctx, n.opts.QRCodeBucket, name, "image/jpeg", qr)
			if err != nil {
				log.Printf("[Mailer] Could not upload QR code, attaching instead: %s\n", err.Error())
				input.Attachments = append(input.Attachments, qrAttachment(qr))
			} else {
				qrLink = *url
			}
		} else {
			input.Attachments = append(input.Attachments, qrAttachment(qr))
		}
	}
	input.Body = confirmationBody(booking, manageLink, qrLink)
	return n.dispatcher.Send(ctx, input)
}

func qrAttachment(data []byte) lib.Attachment {
	return lib.Attachment{Name: "table-qrcode.jpg", ContentType: "image/jpeg", Data: data}
}

func confirmationSubject(b *models.Booking) string {
	if b.IsTable() {
		return "Your table booking is confirmed"
	}
	if b.Quantity == 1 {
		return "Your seat booking is confirmed"
	}
	return "Your seat bookings are confirmed"
}

func itemLabel(b *models.Booking) string {
	if !b.IsTable() {
		return "Seat"
	}
	if b.TableCapacity > 0 {
		return fmt.Sprintf("Table for %d", b.TableCapacity)
	}
	return "Table"
}

func confirmationBody(b *models.Booking, manageLink, qrLink string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `
			<p>Hi %s,</p>
			<p>Thank you for your booking. Reference: <b>%s</b></p>
			<p>What: %s x %d</p>
			<p>Total: %.2f %s</p>
			`,
		html.EscapeString(b.Buyer.Name),
		b.ID.String(),
		itemLabel(b),
		b.Quantity,
		b.TotalAmount,
		strings.ToUpper(b.Currency),
	)
	if len(b.InviteCodes) > 0 {
		sb.WriteString("<p>Invite codes for your guests:</p><ul>")
		for _, c := range b.InviteCodes {
			fmt.Fprintf(&sb, "<li>%s</li>", c.Code)
		}
		sb.WriteString("</ul>")
	}
	if manageLink != "" {
		fmt.Fprintf(&sb, `<p>Manage your table <a href="%s">here</a></p>`, manageLink)
		fmt.Fprintf(&sb, "<p>If link does not work, try copying the url below and pasting in your browser</p><p>%s</p>", manageLink)
	}
	if qrLink != "" {
		fmt.Fprintf(&sb, `<p><img src="%s" alt="table QR code"/></p>`, qrLink)
	}
	sb.WriteString("<p>This is a system-generated message. Do not reply to this email.</p>")
	return sb.String()
}
