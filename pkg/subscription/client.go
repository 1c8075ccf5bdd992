// Package subscription follows the live event stream of the active workflow,
// records its event log durably and keeps the projected status current.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/otelhelper"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/projector"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/stream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrEmptyWorkflowID is returned when activating without a workflow id.
var ErrEmptyWorkflowID = errors.New("workflow id is required")

// EventLogStore is the durable storage the client records into.
type EventLogStore interface {
	LoadEventLog(ctx context.Context, workflowID string) ([]models.WorkflowEvent, error)
	SaveEventLog(ctx context.Context, workflowID string, events []models.WorkflowEvent) error
	DeleteEventLog(ctx context.Context, workflowID string) error
	ActiveWorkflow(ctx context.Context) (string, error)
	SetActiveWorkflow(ctx context.Context, workflowID string) error
	ClearActiveWorkflow(ctx context.Context) error
}

// State is a copy of what the client currently tracks.
type State struct {
	WorkflowID string                 `json:"workflowId,omitempty"`
	Events     []models.WorkflowEvent `json:"events"`
	Snapshot   models.StatusSnapshot  `json:"snapshot"`
	Subscribed bool                   `json:"subscribed"`
}

// Client owns the event log of the active workflow. At most one subscription
// is open at a time; activating another workflow closes the previous one
// first.
type Client struct {
	source   stream.Source
	store    EventLogStore
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer

	// lifecycle serialises Activate, Deactivate and Reset.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}

	mu         sync.RWMutex
	subscribed bool
	workflowID string
	events     []models.WorkflowEvent
	snapshot   models.StatusSnapshot
}

// Option customises a Client.
type Option func(*Client)

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = tracer
	}
}

func NewClient(source stream.Source, store EventLogStore, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		source:   source,
		store:    store,
		observer: noopObserver{},
		logger:   logger.With("module", "subscription", "transport", source.Name()),
		tracer:   otelhelper.Tracer("builder.subscription"),
		events:   []models.WorkflowEvent{},
		snapshot: projector.Project(nil),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Activate starts following workflowID. The stored log is replayed first; a
// stored log that already reached COMPLETED is discarded.
func (c *Client) Activate(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return ErrEmptyWorkflowID
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()

	logger := c.logger.With("workflow_id", workflowID)

	events, err := c.store.LoadEventLog(ctx, workflowID)

	switch {
	case err == nil:
	case persistence.IsCorruptSlot(err):
		logger.WarnContext(ctx, "Stored event log is unreadable, starting empty", "error", err)

		events = []models.WorkflowEvent{}
	default:
		return fmt.Errorf("failed to load event log: %w", err)
	}

	if models.HasPhase(events, models.PhaseCompleted) {
		logger.InfoContext(ctx, "Stored event log already completed, discarding", "events", len(events))

		if err := c.store.DeleteEventLog(ctx, workflowID); err != nil {
			logger.WarnContext(ctx, "Failed to evict completed event log", "error", err)
		}

		events = []models.WorkflowEvent{}
	}

	if err := c.store.SetActiveWorkflow(ctx, workflowID); err != nil {
		logger.WarnContext(ctx, "Failed to persist active workflow", "error", err)
	}

	c.mu.Lock()
	c.workflowID = workflowID
	c.events = events
	c.snapshot = projector.Project(events)
	c.mu.Unlock()

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	incoming, err := c.source.Subscribe(subCtx)
	if err != nil {
		cancel()

		return fmt.Errorf("failed to subscribe to %s: %w", c.source.Name(), err)
	}

	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	c.mu.Lock()
	c.subscribed = true
	c.mu.Unlock()

	go c.consume(subCtx, cancel, workflowID, incoming, done)

	logger.InfoContext(ctx, "Subscribed to workflow events", "replayed", len(events))

	return nil
}

// Resume re-activates the workflow recorded as active, if any. It reports
// whether a workflow was resumed.
func (c *Client) Resume(ctx context.Context) (bool, error) {
	workflowID, err := c.store.ActiveWorkflow(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read active workflow: %w", err)
	}

	if workflowID == "" {
		return false, nil
	}

	if err := c.Activate(ctx, workflowID); err != nil {
		return false, err
	}

	return true, nil
}

// Deactivate closes the open subscription and waits until its consumer has
// stopped. The tracked state stays readable.
func (c *Client) Deactivate() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()
}

// Reset closes the subscription and forgets the tracked workflow.
func (c *Client) Reset() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.stopLocked()

	c.mu.Lock()
	c.workflowID = ""
	c.events = []models.WorkflowEvent{}
	c.snapshot = projector.Project(nil)
	c.mu.Unlock()
}

// Close deactivates the client and releases the transport.
func (c *Client) Close() error {
	c.Deactivate()

	return c.source.Close()
}

func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return State{
		WorkflowID: c.workflowID,
		Events:     slices.Clone(c.events),
		Snapshot:   c.snapshot,
		Subscribed: c.subscribed,
	}
}

func (c *Client) stopLocked() {
	if c.cancel == nil {
		return
	}

	c.cancel()
	<-c.done

	c.cancel = nil
	c.done = nil
}

func (c *Client) consume(ctx context.Context, cancel context.CancelFunc, workflowID string, incoming <-chan models.WorkflowEvent, done chan struct{}) {
	defer close(done)

	defer func() {
		c.mu.Lock()
		c.subscribed = false
		c.mu.Unlock()
	}()

	for event := range incoming {
		if ctx.Err() != nil {
			continue
		}

		if c.handle(ctx, workflowID, event) {
			cancel()
		}
	}
}

// handle records one event and reports whether it ended the workflow.
func (c *Client) handle(ctx context.Context, workflowID string, event models.WorkflowEvent) bool {
	if event.WorkflowID != workflowID {
		return false
	}

	logger := c.logger.With("workflow_id", workflowID, "phase", event.Phase)

	ctx, span := otelhelper.StartSpan(ctx, c.tracer, "subscription.handle_event",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.EventPhaseKey, string(event.Phase)),
		attribute.Int64(otelhelper.EventSeqKey, int64(event.Sequence)),
		attribute.String(otelhelper.TransportKey, c.source.Name()),
	)
	defer span.End()

	c.mu.Lock()

	if len(c.events) > 0 {
		last := c.events[len(c.events)-1].Sequence

		if last > 0 && event.Sequence > 0 {
			if event.Sequence <= last {
				c.mu.Unlock()
				logger.WarnContext(ctx, "Dropping stale or duplicate event", "seq", event.Sequence, "last_seq", last)

				return false
			}

			if event.Sequence > last+1 {
				logger.WarnContext(ctx, "Gap in event sequence", "seq", event.Sequence, "last_seq", last)
			}
		}
	}

	c.events = append(c.events, event)
	c.snapshot = projector.Project(c.events)
	events := slices.Clone(c.events)
	snapshot := c.snapshot

	c.mu.Unlock()

	terminal := event.Phase.Terminal()

	var warning error

	if terminal {
		warning = errors.Join(
			c.store.DeleteEventLog(ctx, workflowID),
			c.store.ClearActiveWorkflow(ctx),
		)
	} else {
		warning = c.store.SaveEventLog(ctx, workflowID, events)
	}

	if warning != nil {
		otelhelper.SetError(span, warning)
		logger.WarnContext(ctx, "Failed to record event", "error", warning)
	}

	if terminal {
		logger.InfoContext(ctx, "Workflow completed, closing subscription", "events", len(events))
	} else {
		logger.DebugContext(ctx, "Recorded workflow event", "events", len(events))
	}

	c.observer.OnUpdate(Update{
		WorkflowID: workflowID,
		Event:      event,
		Snapshot:   snapshot,
		Completed:  terminal,
		Warning:    warning,
	})

	return terminal
}
