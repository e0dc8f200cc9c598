// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"interview-engine-be/internal/dto"
	"interview-engine-be/pkg/events"
	pktNats "interview-engine-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the in-process completion topic and forwards each
// finished interview to the NATS bus, where the recruitment pipeline picks
// it up. Keeping the HTTP path on the in-memory channel means a slow or
// absent NATS never blocks a participant's last answer.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishInterviewCompletedMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Forwarding completed interview for session: %s", payload.SessionKey)

	if cs.eventPublisher == nil {
		// NATS disabled in this deployment; the completion stays local.
		msg.Ack()
		return
	}

	evt := events.NewInterviewCompleted(payload.SessionKey, payload.Flow, payload.SchemaVersion, payload.Answers)
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[ERROR] Failed to publish completion for session %s: %v", payload.SessionKey, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	log.Printf("[SUCCESS] Interview completion published for session: %s", payload.SessionKey)
	msg.Ack()
}
