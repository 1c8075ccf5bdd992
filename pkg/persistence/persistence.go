// Package persistence provides the durable cache behind the workflow builder:
// one slot for the current document, one slot per published workflow for its
// event log, and small flag slots.
package persistence

import (
	"context"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Persistence is the typed view every component uses; nothing above it writes
// to a backend directly.
type Persistence interface {
	LoadDocument(ctx context.Context) (*models.WorkflowDocument, error)
	SaveDocument(ctx context.Context, doc *models.WorkflowDocument) error

	LoadEventLog(ctx context.Context, workflowID string) ([]models.WorkflowEvent, error)
	SaveEventLog(ctx context.Context, workflowID string, events []models.WorkflowEvent) error
	DeleteEventLog(ctx context.Context, workflowID string) error

	ActiveWorkflow(ctx context.Context) (string, error)
	SetActiveWorkflow(ctx context.Context, workflowID string) error
	ClearActiveWorkflow(ctx context.Context) error

	PanelDismissed(ctx context.Context) (bool, error)
	SetPanelDismissed(ctx context.Context, dismissed bool) error

	// Reset clears every slot.
	Reset(ctx context.Context) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// Slots is a raw key/value backend. Each Put replaces the whole value
// atomically; there is no cross-slot transaction.
type Slots interface {
	// Get returns ErrSlotNotFound when the key has no value.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
