// Package graph holds the authoritative in-memory workflow document and the
// closed set of intents that mutate it.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
)

// DocumentCache is the durable slot the store writes through to.
type DocumentCache interface {
	LoadDocument(ctx context.Context) (*models.WorkflowDocument, error)
	SaveDocument(ctx context.Context, doc *models.WorkflowDocument) error
}

// Selection is the transient editor focus. It is never persisted.
type Selection struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// Store owns the current document. Every intent is applied to a copy and
// swapped in only when it succeeds, then written through to the cache.
type Store struct {
	mu        sync.RWMutex
	doc       *models.WorkflowDocument
	selection Selection
	cache     DocumentCache
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customises a Store.
type Option func(*Store)

// WithClock sets the time source used for metadata.updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for node and edge ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore loads the saved document, or starts from the empty document when
// nothing usable was saved.
func NewStore(ctx context.Context, cache DocumentCache, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		cache:  cache,
		logger: logger.With("module", "graph_store"),
		now:    time.Now,
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	doc, err := cache.LoadDocument(ctx)

	switch {
	case err == nil:
		s.doc = doc
		s.logger.InfoContext(ctx, "Loaded saved document", "nodes", len(doc.Nodes), "edges", len(doc.Edges))

		return s, nil
	case persistence.IsDocumentNotFound(err):
		s.logger.InfoContext(ctx, "No saved document, starting empty")
	case persistence.IsCorruptSlot(err):
		s.logger.WarnContext(ctx, "Saved document is unreadable, starting empty", "error", err)
	default:
		return nil, fmt.Errorf("failed to load document: %w", err)
	}

	s.doc = models.NewDocument(s.now())

	if err := cache.SaveDocument(ctx, s.doc); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist empty document", "error", err)
	}

	return s, nil
}

// Dispatch applies an intent atomically. A rejected intent leaves the document
// untouched. A *PersistError means the change is live but was not saved.
func (s *Store) Dispatch(ctx context.Context, intent Intent) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &mutation{
		doc:       s.doc.Clone(),
		selection: s.selection,
		newID:     s.newID,
	}

	if err := intent.apply(m); err != nil {
		s.logger.DebugContext(ctx, "Intent rejected", "intent", intent.Name(), "error", err)

		return Result{}, fmt.Errorf("%s: %w", intent.Name(), err)
	}

	m.doc.Metadata.UpdatedAt = s.now().UTC()
	s.doc = m.doc
	s.selection = m.selection

	if err := s.cache.SaveDocument(ctx, s.doc); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist document", "intent", intent.Name(), "error", err)

		return m.result, &PersistError{Intent: intent.Name(), Err: err}
	}

	return m.result, nil
}

// Document returns a copy of the current document.
func (s *Store) Document() *models.WorkflowDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.doc.Clone()
}

func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selection
}

// SelectNode focuses a node and clears any edge focus. An empty id clears it.
func (s *Store) SelectNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.doc.NodeByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	s.selection = Selection{NodeID: id}

	return nil
}

// SelectEdge focuses an edge and clears any node focus. An empty id clears it.
func (s *Store) SelectEdge(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.doc.EdgeByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}

	s.selection = Selection{EdgeID: id}

	return nil
}

func (s *Store) AddNode(ctx context.Context, kind models.NodeKind, position models.Position) (string, error) {
	result, err := s.Dispatch(ctx, AddNode{Kind: kind, Position: position})

	return result.NodeID, err
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteNode{ID: id})

	return err
}

func (s *Store) DuplicateNode(ctx context.Context, id string) (string, error) {
	result, err := s.Dispatch(ctx, DuplicateNode{ID: id})

	return result.NodeID, err
}

func (s *Store) MoveNode(ctx context.Context, id string, position models.Position) error {
	_, err := s.Dispatch(ctx, MoveNode{ID: id, Position: position})

	return err
}

func (s *Store) AddEdge(ctx context.Context, edge models.GraphEdge) (string, error) {
	result, err := s.Dispatch(ctx, AddEdge{Edge: edge})

	return result.EdgeID, err
}

func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	_, err := s.Dispatch(ctx, DeleteEdge{ID: id})

	return err
}

func (s *Store) UpdateNodeData(ctx context.Context, id string, patch models.NodeAttributesPatch) error {
	_, err := s.Dispatch(ctx, UpdateNodeData{ID: id, Patch: patch})

	return err
}

func (s *Store) UpdateEdgeData(ctx context.Context, id string, patch models.EdgeAttributesPatch) error {
	_, err := s.Dispatch(ctx, UpdateEdgeData{ID: id, Patch: patch})

	return err
}

func (s *Store) ReplaceDocument(ctx context.Context, doc *models.WorkflowDocument) error {
	_, err := s.Dispatch(ctx, ReplaceDocument{Document: doc})

	return err
}

func (s *Store) Reset(ctx context.Context) error {
	_, err := s.Dispatch(ctx, ResetDocument{})

	return err
}
