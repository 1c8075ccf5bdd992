package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Slot keys of the durable storage layout.
const (
	DocumentKey       = "workflow-builder:v1"
	ActiveWorkflowKey = "workflow-builder:active-workflow"
	PanelDismissedKey = "workflow-builder:status-panel-dismissed"
	eventLogKeyPrefix = "workflow-events:"
)

// EventLogKey returns the slot key holding the event log of a workflow.
func EventLogKey(workflowID string) string {
	return eventLogKeyPrefix + workflowID
}

// Cache implements Persistence on top of a raw Slots backend.
type Cache struct {
	slots Slots
}

var _ Persistence = (*Cache)(nil)

// NewCache wraps a slot backend.
func NewCache(slots Slots) *Cache {
	return &Cache{slots: slots}
}

// LoadDocument returns ErrDocumentNotFound when nothing was saved yet.
func (c *Cache) LoadDocument(ctx context.Context) (*models.WorkflowDocument, error) {
	body, err := c.slots.Get(ctx, DocumentKey)
	if err != nil {
		if IsSlotNotFound(err) {
			return nil, ErrDocumentNotFound
		}

		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	var doc models.WorkflowDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, NewSlotError("LoadDocument", DocumentKey, fmt.Errorf("%w: %w", ErrCorruptSlot, err))
	}

	if doc.Nodes == nil {
		doc.Nodes = []*models.GraphNode{}
	}

	if doc.Edges == nil {
		doc.Edges = []*models.GraphEdge{}
	}

	return &doc, nil
}

func (c *Cache) SaveDocument(ctx context.Context, doc *models.WorkflowDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := c.slots.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

// LoadEventLog returns the stored log verbatim, or an empty log.
func (c *Cache) LoadEventLog(ctx context.Context, workflowID string) ([]models.WorkflowEvent, error) {
	if workflowID == "" {
		return nil, ErrEmptyWorkflowID
	}

	key := EventLogKey(workflowID)

	body, err := c.slots.Get(ctx, key)
	if err != nil {
		if IsSlotNotFound(err) {
			return []models.WorkflowEvent{}, nil
		}

		return nil, fmt.Errorf("failed to load event log %s: %w", workflowID, err)
	}

	var events []models.WorkflowEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, NewSlotError("LoadEventLog", key, fmt.Errorf("%w: %w", ErrCorruptSlot, err))
	}

	if events == nil {
		events = []models.WorkflowEvent{}
	}

	return events, nil
}

func (c *Cache) SaveEventLog(ctx context.Context, workflowID string, events []models.WorkflowEvent) error {
	if workflowID == "" {
		return ErrEmptyWorkflowID
	}

	if events == nil {
		events = []models.WorkflowEvent{}
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal event log %s: %w", workflowID, err)
	}

	if err := c.slots.Put(ctx, EventLogKey(workflowID), data); err != nil {
		return fmt.Errorf("failed to save event log %s: %w", workflowID, err)
	}

	return nil
}

func (c *Cache) DeleteEventLog(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return ErrEmptyWorkflowID
	}

	if err := c.slots.Delete(ctx, EventLogKey(workflowID)); err != nil {
		return fmt.Errorf("failed to delete event log %s: %w", workflowID, err)
	}

	return nil
}

// ActiveWorkflow returns "" when no workflow is active.
func (c *Cache) ActiveWorkflow(ctx context.Context) (string, error) {
	body, err := c.slots.Get(ctx, ActiveWorkflowKey)
	if err != nil {
		if IsSlotNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("failed to load active workflow: %w", err)
	}

	return string(body), nil
}

func (c *Cache) SetActiveWorkflow(ctx context.Context, workflowID string) error {
	if workflowID == "" {
		return ErrEmptyWorkflowID
	}

	if err := c.slots.Put(ctx, ActiveWorkflowKey, []byte(workflowID)); err != nil {
		return fmt.Errorf("failed to save active workflow: %w", err)
	}

	return nil
}

func (c *Cache) ClearActiveWorkflow(ctx context.Context) error {
	if err := c.slots.Delete(ctx, ActiveWorkflowKey); err != nil {
		return fmt.Errorf("failed to clear active workflow: %w", err)
	}

	return nil
}

func (c *Cache) PanelDismissed(ctx context.Context) (bool, error) {
	body, err := c.slots.Get(ctx, PanelDismissedKey)
	if err != nil {
		if IsSlotNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to load panel flag: %w", err)
	}

	dismissed, err := strconv.ParseBool(string(body))
	if err != nil {
		return false, NewSlotError("PanelDismissed", PanelDismissedKey, fmt.Errorf("%w: %w", ErrCorruptSlot, err))
	}

	return dismissed, nil
}

func (c *Cache) SetPanelDismissed(ctx context.Context, dismissed bool) error {
	if err := c.slots.Put(ctx, PanelDismissedKey, []byte(strconv.FormatBool(dismissed))); err != nil {
		return fmt.Errorf("failed to save panel flag: %w", err)
	}

	return nil
}

func (c *Cache) Reset(ctx context.Context) error {
	if err := c.slots.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset cache: %w", err)
	}

	return nil
}

func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.slots.HealthCheck(ctx)
}

func (c *Cache) Close(ctx context.Context) error {
	return c.slots.Close(ctx)
}
