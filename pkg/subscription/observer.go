package subscription

import (
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Update is sent to the Observer after each accepted event.
type Update struct {
	WorkflowID string
	Event      models.WorkflowEvent
	Snapshot   models.StatusSnapshot
	// Completed is set when Event ended the workflow and the subscription closed.
	Completed bool
	// Warning reports a storage failure while recording the event. The event
	// was still applied in memory.
	Warning error
}

// Observer receives updates from the consuming goroutine, one at a time and in
// event order. Implementations must not block for long.
type Observer interface {
	OnUpdate(update Update)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(update Update)

func (f ObserverFunc) OnUpdate(update Update) {
	f(update)
}

type noopObserver struct{}

func (noopObserver) OnUpdate(Update) {}
