package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// DefaultTopic is the topic engine progress events are published on.
const DefaultTopic = "workflow-events"

// WorkflowIDMetadataKey names the message metadata entry carrying the
// workflow id. Partitioned transports key on it.
const WorkflowIDMetadataKey = "workflow_id"

// WatermillSource consumes events from a watermill topic, e.g. Kafka or the
// in-memory Go channel.
type WatermillSource struct {
	name       string
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

var _ Source = (*WatermillSource)(nil)

// NewWatermillSource wraps subscriber. name identifies the backend in logs.
func NewWatermillSource(name string, subscriber message.Subscriber, topic string, logger *slog.Logger) *WatermillSource {
	if topic == "" {
		topic = DefaultTopic
	}

	return &WatermillSource{
		name:       name,
		subscriber: subscriber,
		topic:      topic,
		logger:     logger.With("module", "watermill_source", "backend", name, "topic", topic),
	}
}

func (s *WatermillSource) Name() string { return s.name }

func (s *WatermillSource) Close() error {
	return s.subscriber.Close()
}

func (s *WatermillSource) Subscribe(ctx context.Context) (<-chan models.WorkflowEvent, error) {
	messages, err := s.subscriber.Subscribe(ctx, s.topic)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.topic, err)
	}

	out := make(chan models.WorkflowEvent)

	go s.forward(ctx, messages, out)

	return out, nil
}

func (s *WatermillSource) forward(ctx context.Context, messages <-chan *message.Message, out chan<- models.WorkflowEvent) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			event, err := Decode(msg.Payload)
			if err != nil {
				s.logger.WarnContext(ctx, "Skipping malformed event", "message_uuid", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			if !deliver(ctx, out, event) {
				msg.Nack()

				return
			}

			msg.Ack()
		}
	}
}

// Emit publishes events on topic, one message per event.
func Emit(publisher message.Publisher, topic string, events ...models.WorkflowEvent) error {
	if topic == "" {
		topic = DefaultTopic
	}

	messages := make([]*message.Message, 0, len(events))

	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(WorkflowIDMetadataKey, event.WorkflowID)
		messages = append(messages, msg)
	}

	if err := publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish events on %s: %w", topic, err)
	}

	return nil
}
