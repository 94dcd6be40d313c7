package mailer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"galabook/src/lib"
	awslib "galabook/src/lib/aws"
	"galabook/src/utils"
	"log"
)

const (
	TRANSPORT_SMTP = "smtp"
	TRANSPORT_SES  = "ses"
	TRANSPORT_SQS  = "sqs"
)

// Dispatcher delivers a single message.
type Dispatcher interface {
	Send(ctx context.Context, input *lib.SendMailInput) error
}

type SMTPDispatcher struct{}

func (SMTPDispatcher) Send(ctx context.Context, input *lib.SendMailInput) error {
	return lib.SendMail(ctx, input)
}

type SESDispatcher struct{}

func (SESDispatcher) Send(ctx context.Context, input *lib.SendMailInput) error {
	raw, err := lib.RawMessage(input)
	if err != nil {
		return err
	}
	return awslib.SESSendRawMessage(ctx, raw)
}

// QueueDispatcher hands messages to a worker through SQS.
type QueueDispatcher struct {
	Queue string
}

func (d QueueDispatcher) Send(ctx context.Context, input *lib.SendMailInput) error {
	body, err := QueuePayload(input)
	if err != nil {
		return err
	}
	if err := lib.SQSProduceMessage(ctx, utils.WithSuffix(d.Queue), body); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

// QueuePayload encodes input the way the email queue worker reads it.
// Attachment data is base64 encoded.
func QueuePayload(input *lib.SendMailInput) (string, error) {
	attachments := make([]map[string]string, 0, len(input.Attachments))
	for _, a := range input.Attachments {
		attachments = append(attachments, map[string]string{
			"name":         a.Name,
			"content-type": a.ContentType,
			"data":         base64.StdEncoding.EncodeToString(a.Data),
		})
	}
	emailBody := map[string]any{
		"from":        input.From,
		"from-name":   input.FromName,
		"to":          input.To,
		"cc":          input.Cc,
		"bcc":         input.Bcc,
		"reply-to":    input.ReplyTo,
		"body":        input.Body,
		"html":        input.Html,
		"subject":     input.Subject,
		"attachments": attachments,
	}
	body, err := json.Marshal(emailBody)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func NewDispatcher(transport string, queue string) Dispatcher {
	switch transport {
	case TRANSPORT_SES:
		return SESDispatcher{}
	case TRANSPORT_SQS:
		return QueueDispatcher{Queue: queue}
	case TRANSPORT_SMTP, "":
		return SMTPDispatcher{}
	}
	log.Printf("Unknown email transport %q, falling back to smtp\n", transport)
	return SMTPDispatcher{}
}
