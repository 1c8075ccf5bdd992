// Package stream delivers engine progress events from the shared push channel.
//
// Every transport multiplexes the events of all workflows; consumers filter by
// workflow id themselves.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// ErrMalformedEvent is returned by Decode for payloads that are not a usable event.
var ErrMalformedEvent = errors.New("malformed workflow event")

// Source opens subscriptions on the event channel.
type Source interface {
	// Subscribe streams events until ctx is cancelled. The returned channel is
	// closed once the subscription has fully stopped.
	Subscribe(ctx context.Context) (<-chan models.WorkflowEvent, error)
	Name() string
	Close() error
}

// Decode parses one message payload.
func Decode(payload []byte) (models.WorkflowEvent, error) {
	var event models.WorkflowEvent

	if err := json.Unmarshal(payload, &event); err != nil {
		return models.WorkflowEvent{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if event.WorkflowID == "" {
		return models.WorkflowEvent{}, fmt.Errorf("%w: missing workflowId", ErrMalformedEvent)
	}

	if event.Phase == "" {
		return models.WorkflowEvent{}, fmt.Errorf("%w: missing phase", ErrMalformedEvent)
	}

	return event, nil
}

// deliver hands event to out unless ctx ends first.
func deliver(ctx context.Context, out chan<- models.WorkflowEvent, event models.WorkflowEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
