package aws

import (
	"context"
	"galabook/src/lib"
	"galabook/src/types"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type SQSConsumer struct {
	Name    string
	handler types.Handler
}

func NewSQSConsumer(queue string, handler types.Handler) *SQSConsumer {
	return &SQSConsumer{
		Name:    queue,
		handler: handler,
	}
}

// Listen polls the queue until ctx is done. A message is deleted only after
// its handler returns without error.
func (s *SQSConsumer) Listen(ctx context.Context) {
	go func() {
		qname := s.Name
		client := lib.AWSGetSQSClient()
		if client == nil {
			log.Printf("%s: SQS client unavailable, consumer not started\n", qname)
			return
		}
		qurl, err := lib.SQSQueueURL(ctx, client, qname)
		if err != nil {
			log.Printf("Failed to retrieve queue URL for %s: %s\n", qname, err.Error())
			return
		}
		log.Printf("%s: Listening for messages...", qname)
		messagesChan := make(chan *sqstypes.Message, 10)
		go func(chn chan<- *sqstypes.Message) {
			defer close(chn)
			for ctx.Err() == nil {
				output, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
					QueueUrl:            qurl,
					WaitTimeSeconds:     20,
					MaxNumberOfMessages: 10,
				})
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[SQS] Error receiving messages: %s\n", err.Error())
					return
				}
				for _, m := range output.Messages {
					chn <- &m
				}
			}
		}(messagesChan)

		for m := range messagesChan {
			body := strings.Clone(aws.ToString(m.Body))
			if err := s.handler(body); err != nil {
				log.Printf("[%s] Error handling message %s, leaving it for redelivery: %s\n", qname, aws.ToString(m.MessageId), err.Error())
				continue
			}
			lib.SQSDeleteMessage(client, qurl, m)
		}
	}()
}
