package services

import (
	"context"
	"log/slog"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/projector"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/publisher"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/subscription"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/validation"
)

// Engine publishes a document to the execution engine.
type Engine interface {
	Publish(ctx context.Context, doc *models.WorkflowDocument) (*publisher.Receipt, error)
}

// Tracker follows the event stream of the published workflow.
type Tracker interface {
	Activate(ctx context.Context, workflowID string) error
	Reset()
	State() subscription.State
}

// Builder ties the graph store to the engine and the live status of the last
// published workflow.
type Builder struct {
	store       *graph.Store
	engine      Engine
	tracker     Tracker
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewBuilder(
	store *graph.Store,
	engine Engine,
	tracker Tracker,
	persistence persistence.Persistence,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		store:       store,
		engine:      engine,
		tracker:     tracker,
		persistence: persistence,
		logger:      logger.With("module", "builder_service"),
	}
}

// Store returns the graph store edits are dispatched to.
func (b *Builder) Store() *graph.Store {
	return b.store
}

// HealthCheck checks the health of the persistence layer.
func (b *Builder) HealthCheck(ctx context.Context) (string, bool) {
	if b.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := b.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Validate runs the publish validator over the current document.
func (b *Builder) Validate() validation.Result {
	return validation.Validate(b.store.Document())
}

// PublishResult is returned by a successful Publish.
type PublishResult struct {
	WorkflowID string `json:"workflowId"`
	// Warning is set when tracking could not be recorded durably.
	Warning error `json:"-"`
}

// Publish validates the current document, sends it to the engine and starts
// tracking the returned workflow id. The engine is called at most once.
func (b *Builder) Publish(ctx context.Context) (*PublishResult, error) {
	doc := b.store.Document()

	result := validation.Validate(doc)
	if !result.Publishable {
		b.logger.InfoContext(ctx, "Publish blocked by validation", "violations", len(result.Violations))

		return nil, &ValidationError{Op: "publish", Violations: result.Violations}
	}

	receipt, err := b.engine.Publish(ctx, doc)
	if err != nil {
		b.logger.WarnContext(ctx, "Engine refused publish", "error", err)

		return nil, &ServiceError{Op: "publish", Code: "engine_error", Err: err}
	}

	logger := b.logger.With("workflow_id", receipt.WorkflowID)
	logger.InfoContext(ctx, "Workflow published")

	published := &PublishResult{WorkflowID: receipt.WorkflowID}

	if err := b.persistence.SetPanelDismissed(ctx, false); err != nil {
		logger.WarnContext(ctx, "Failed to reopen status panel", "error", err)

		published.Warning = err
	}

	if err := b.tracker.Activate(ctx, receipt.WorkflowID); err != nil {
		return published, &ServiceError{
			Op:      "publish",
			Code:    "subscription_error",
			Message: "workflow " + receipt.WorkflowID + " was published but its events cannot be followed",
			Err:     err,
		}
	}

	return published, nil
}

// Reset discards the document, the tracked workflow and every durable slot,
// then starts over from the empty document.
func (b *Builder) Reset(ctx context.Context) error {
	b.tracker.Reset()

	clearErr := b.persistence.Reset(ctx)
	if clearErr != nil {
		b.logger.WarnContext(ctx, "Failed to clear storage", "error", clearErr)
	}

	err := b.store.Reset(ctx)
	if err != nil && !graph.IsPersistWarning(err) {
		return err
	}

	if clearErr != nil {
		return &graph.PersistError{Intent: "reset", Err: clearErr}
	}

	return err
}

// Status describes the tracked workflow for display.
type Status struct {
	WorkflowID     string                   `json:"workflowId,omitempty"`
	Subscribed     bool                     `json:"subscribed"`
	Snapshot       models.StatusSnapshot    `json:"snapshot"`
	Events         []models.WorkflowEvent   `json:"events"`
	Timeline       []projector.TimelineItem `json:"timeline"`
	PanelDismissed bool                     `json:"panelDismissed"`
}

func (b *Builder) Status(ctx context.Context) Status {
	state := b.tracker.State()

	dismissed, err := b.persistence.PanelDismissed(ctx)
	if err != nil {
		b.logger.WarnContext(ctx, "Failed to read status panel flag", "error", err)
	}

	return Status{
		WorkflowID:     state.WorkflowID,
		Subscribed:     state.Subscribed,
		Snapshot:       state.Snapshot,
		Events:         state.Events,
		Timeline:       projector.Timeline(state.Events),
		PanelDismissed: dismissed,
	}
}

// SetPanelDismissed records whether the status panel was closed by the user.
func (b *Builder) SetPanelDismissed(ctx context.Context, dismissed bool) error {
	if err := b.persistence.SetPanelDismissed(ctx, dismissed); err != nil {
		return &ServiceError{Op: "set_panel_dismissed", Code: "storage_error", Err: err}
	}

	return nil
}

// Presentation returns the current document with the tracked status overlaid.
func (b *Builder) Presentation() Presentation {
	state := b.tracker.State()

	return Present(b.store.Document(), b.store.Selection(), state.WorkflowID, state.Snapshot)
}
