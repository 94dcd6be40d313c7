package common

import (
	"context"
	"encoding/base64"
	"errors"
	"galabook/src/lib"
	awslib "galabook/src/lib/aws"
	"galabook/src/utils"
	"log"

	"github.com/tidwall/gjson"
)

type mailSender func(ctx context.Context, input *lib.SendMailInput) error

// ParseEmailPayload reads a queued email message.
func ParseEmailPayload(payload string) (*lib.SendMailInput, error) {
	if !gjson.Valid(payload) {
		return nil, errors.New("email payload is not valid json")
	}
	parsed := gjson.Parse(payload)
	input := &lib.SendMailInput{
		From:     parsed.Get("from").String(),
		FromName: parsed.Get("from-name").String(),
		ReplyTo:  parsed.Get("reply-to").String(),
		Subject:  parsed.Get("subject").String(),
		Body:     parsed.Get("body").String(),
		Html:     parsed.Get("html").Bool(),
		To:       stringsOf(parsed.Get("to")),
		Cc:       stringsOf(parsed.Get("cc")),
		Bcc:      stringsOf(parsed.Get("bcc")),
	}
	if len(input.To) == 0 {
		return nil, errors.New("email payload has no recipient")
	}
	for _, a := range parsed.Get("attachments").Array() {
		data, err := base64.StdEncoding.DecodeString(a.Get("data").String())
		if err != nil {
			return nil, err
		}
		input.Attachments = append(input.Attachments, lib.Attachment{
			Name:        a.Get("name").String(),
			ContentType: a.Get("content-type").String(),
			Data:        data,
		})
	}
	return input, nil
}

func stringsOf(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// EmailHandler returns the queue handler that delivers messages. Malformed
// messages are dropped; delivery errors leave the message for redelivery.
func EmailHandler(ctx context.Context, send mailSender) func(payload string) error {
	return func(payload string) error {
		input, err := ParseEmailPayload(payload)
		if err != nil {
			log.Printf("[EmailQueue] Dropping malformed message: %s\n", err.Error())
			return nil
		}
		if err := send(ctx, input); err != nil {
			log.Printf("[EmailQueue] Error sending email to %v: %s\n", input.To, err.Error())
			return err
		}
		return nil
	}
}

func SQSConsumers(ctx context.Context, emailQueue string) {
	emails := awslib.NewSQSConsumer(utils.WithSuffix(emailQueue), EmailHandler(ctx, lib.SendMail))
	emails.Listen(ctx)
}
