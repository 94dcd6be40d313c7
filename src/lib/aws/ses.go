package aws

import (
	"context"
	"errors"
	"galabook/src/lib"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESSendRawMessage sends a complete MIME message, attachments included.
func SESSendRawMessage(ctx context.Context, raw []byte) error {
	c := lib.AWSGetSESClient()
	if c == nil {
		return errors.New("SES client is not configured")
	}
	out, err := c.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
	})
	if err != nil {
		log.Printf("Error sending email: %s\n", err.Error())
		return err
	}
	log.Printf("Sent email with id: %s\n", *out.MessageId)
	return nil
}
