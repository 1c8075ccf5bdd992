// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/mcuadros/go-defaults"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/channels/gochannel"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/channels/kafka"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/stream"
)

// ErrUnsupportedTransport is returned for an unknown EVENT_TRANSPORT value.
var ErrUnsupportedTransport = errors.New("unsupported event transport")

// ErrNotPublishable is returned when a transport has no publishing side.
var ErrNotPublishable = errors.New("event transport cannot publish")

const serviceName = "workflow-builder"

// EventConfig selects and configures the engine event transport.
type EventConfig struct {
	// Transport is one of sse, kafka, gochannel or socketio.
	Transport string `default:"sse"`
	EngineURL string
	Brokers   []string
	Topic     string `default:"workflow-events"`

	SocketIOURL       string
	SocketIONamespace string `default:"/"`
	SocketIOEvent     string `default:"workflow-event"`
}

// EventChannel is an event source plus, for broker transports, the publisher
// writing to the same topic.
type EventChannel struct {
	Source    stream.Source
	Publisher message.Publisher
	Topic     string
}

// NewEventChannel builds the transport named by cfg.Transport. Empty fields
// take their tagged defaults.
func NewEventChannel(cfg EventConfig, logger *slog.Logger) (*EventChannel, error) {
	defaults.SetDefaults(&cfg)

	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Transport {
	case "sse":
		return &EventChannel{Source: stream.NewSSESource(cfg.EngineURL, logger)}, nil

	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, cfg.Brokers, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return &EventChannel{
			Source:    stream.NewWatermillSource("kafka", sub, cfg.Topic, logger),
			Publisher: pub,
			Topic:     cfg.Topic,
		}, nil

	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Go channel pub/sub: %w", err)
		}

		return &EventChannel{
			Source:    stream.NewWatermillSource("gochannel", sub, cfg.Topic, logger),
			Publisher: pub,
			Topic:     cfg.Topic,
		}, nil

	case "socketio":
		url := cfg.SocketIOURL
		if url == "" {
			url = cfg.EngineURL
		}

		source, err := stream.NewSocketIOSource(url, cfg.SocketIONamespace, cfg.SocketIOEvent, logger)
		if err != nil {
			return nil, err
		}

		return &EventChannel{Source: source}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, cfg.Transport)
	}
}

// Emit publishes events on the channel's topic.
func (c *EventChannel) Emit(events ...models.WorkflowEvent) error {
	if c.Publisher == nil {
		return fmt.Errorf("%w: %s", ErrNotPublishable, c.Source.Name())
	}

	return stream.Emit(c.Publisher, c.Topic, events...)
}

// Close releases the source and the publisher.
func (c *EventChannel) Close() error {
	var errs []error

	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}

	errs = append(errs, c.Source.Close())

	return errors.Join(errs...)
}
