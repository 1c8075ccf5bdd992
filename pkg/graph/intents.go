package graph

import (
	"fmt"
	"slices"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// DuplicateOffset is how far a duplicated node is moved from its original.
var DuplicateOffset = models.Position{X: 180, Y: 100}

// Intent is one of the named mutations the store accepts. The set is closed:
// only intents declared in this package can be dispatched.
type Intent interface {
	Name() string
	apply(m *mutation) error
}

// Result reports what an intent created or removed.
type Result struct {
	NodeID         string
	EdgeID         string
	RemovedEdgeIDs []string
}

// mutation is the working copy an intent is applied to.
type mutation struct {
	doc       *models.WorkflowDocument
	selection Selection
	newID     func() string
	result    Result
}

func (m *mutation) node(id string) (*models.GraphNode, error) {
	node := m.doc.NodeByID(id)
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	return node, nil
}

func (m *mutation) edge(id string) (*models.GraphEdge, error) {
	edge := m.doc.EdgeByID(id)
	if edge == nil {
		return nil, fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}

	return edge, nil
}

// AddNode creates a node of Kind at Position with default attributes.
type AddNode struct {
	Kind     models.NodeKind
	Position models.Position
}

func (AddNode) Name() string { return "add_node" }

func (i AddNode) apply(m *mutation) error {
	if !i.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidNodeKind, i.Kind)
	}

	node := &models.GraphNode{
		ID:         m.newID(),
		Kind:       i.Kind,
		Position:   i.Position,
		Attributes: models.DefaultAttributes(i.Kind),
	}

	m.doc.Nodes = append(m.doc.Nodes, node)
	m.result.NodeID = node.ID

	return nil
}

// DeleteNode removes a node and, in the same step, every edge touching it.
type DeleteNode struct {
	ID string
}

func (DeleteNode) Name() string { return "delete_node" }

func (i DeleteNode) apply(m *mutation) error {
	if _, err := m.node(i.ID); err != nil {
		return err
	}

	m.doc.Nodes = slices.DeleteFunc(m.doc.Nodes, func(n *models.GraphNode) bool {
		return n.ID == i.ID
	})

	m.doc.Edges = slices.DeleteFunc(m.doc.Edges, func(e *models.GraphEdge) bool {
		if e.SourceNodeID == i.ID || e.TargetNodeID == i.ID {
			m.result.RemovedEdgeIDs = append(m.result.RemovedEdgeIDs, e.ID)

			return true
		}

		return false
	})

	m.result.NodeID = i.ID

	if m.selection.NodeID == i.ID {
		m.selection.NodeID = ""
	}

	if slices.Contains(m.result.RemovedEdgeIDs, m.selection.EdgeID) {
		m.selection.EdgeID = ""
	}

	return nil
}

// DuplicateNode copies a node's kind and attributes to a new, offset node.
// Incident edges are not copied.
type DuplicateNode struct {
	ID string
}

func (DuplicateNode) Name() string { return "duplicate_node" }

func (i DuplicateNode) apply(m *mutation) error {
	original, err := m.node(i.ID)
	if err != nil {
		return err
	}

	clone := &models.GraphNode{
		ID:         m.newID(),
		Kind:       original.Kind,
		Position:   original.Position.Offset(DuplicateOffset.X, DuplicateOffset.Y),
		Attributes: original.Attributes,
	}

	m.doc.Nodes = append(m.doc.Nodes, clone)
	m.result.NodeID = clone.ID

	return nil
}

// MoveNode sets a node's canvas position.
type MoveNode struct {
	ID       string
	Position models.Position
}

func (MoveNode) Name() string { return "move_node" }

func (i MoveNode) apply(m *mutation) error {
	node, err := m.node(i.ID)
	if err != nil {
		return err
	}

	node.Position = i.Position
	m.result.NodeID = node.ID

	return nil
}

// AddEdge connects two existing nodes. An empty Edge.ID is generated.
type AddEdge struct {
	Edge models.GraphEdge
}

func (AddEdge) Name() string { return "add_edge" }

func (i AddEdge) apply(m *mutation) error {
	edge := i.Edge

	if edge.ID == "" {
		edge.ID = m.newID()
	}

	if m.doc.EdgeByID(edge.ID) != nil {
		return fmt.Errorf("%w: %s", ErrEdgeAlreadyExists, edge.ID)
	}

	if _, err := m.node(edge.SourceNodeID); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if _, err := m.node(edge.TargetNodeID); err != nil {
		return fmt.Errorf("target: %w", err)
	}

	if edge.Attributes.Branch != "" && !edge.Attributes.Branch.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBranch, edge.Attributes.Branch)
	}

	m.doc.Edges = append(m.doc.Edges, &edge)
	m.result.EdgeID = edge.ID

	return nil
}

// DeleteEdge removes one edge.
type DeleteEdge struct {
	ID string
}

func (DeleteEdge) Name() string { return "delete_edge" }

func (i DeleteEdge) apply(m *mutation) error {
	if _, err := m.edge(i.ID); err != nil {
		return err
	}

	m.doc.Edges = slices.DeleteFunc(m.doc.Edges, func(e *models.GraphEdge) bool {
		return e.ID == i.ID
	})

	m.result.EdgeID = i.ID

	if m.selection.EdgeID == i.ID {
		m.selection.EdgeID = ""
	}

	return nil
}

// UpdateNodeData shallow-merges Patch into the node's attributes.
type UpdateNodeData struct {
	ID    string
	Patch models.NodeAttributesPatch
}

func (UpdateNodeData) Name() string { return "update_node_data" }

func (i UpdateNodeData) apply(m *mutation) error {
	node, err := m.node(i.ID)
	if err != nil {
		return err
	}

	node.Attributes = node.Attributes.Merge(i.Patch)
	m.result.NodeID = node.ID

	return nil
}

// UpdateEdgeData shallow-merges Patch into the edge's attributes.
type UpdateEdgeData struct {
	ID    string
	Patch models.EdgeAttributesPatch
}

func (UpdateEdgeData) Name() string { return "update_edge_data" }

func (i UpdateEdgeData) apply(m *mutation) error {
	edge, err := m.edge(i.ID)
	if err != nil {
		return err
	}

	if i.Patch.Branch != nil && *i.Patch.Branch != "" && !i.Patch.Branch.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidBranch, *i.Patch.Branch)
	}

	edge.Attributes = edge.Attributes.Merge(i.Patch)
	m.result.EdgeID = edge.ID

	return nil
}

// ReplaceDocument swaps in an imported document. The document must satisfy the
// graph invariants checked by CheckInvariants; otherwise the current document
// is kept.
type ReplaceDocument struct {
	Document *models.WorkflowDocument
}

func (ReplaceDocument) Name() string { return "replace_document" }

func (i ReplaceDocument) apply(m *mutation) error {
	if err := CheckInvariants(i.Document); err != nil {
		return err
	}

	doc := i.Document.Clone()
	doc.Metadata.UpdatedAt = m.doc.Metadata.UpdatedAt

	m.doc = doc
	m.selection = Selection{}

	return nil
}

// ResetDocument replaces the document with a fresh empty one.
type ResetDocument struct{}

func (ResetDocument) Name() string { return "reset_document" }

func (ResetDocument) apply(m *mutation) error {
	m.doc = models.NewDocument(m.doc.Metadata.UpdatedAt)
	m.selection = Selection{}

	return nil
}

// CheckInvariants verifies the structural invariants every stored document
// holds: ids present and unique, known kinds, and edges between existing nodes.
// Attributes and degrees are left to the publish validator.
func CheckInvariants(doc *models.WorkflowDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	nodeIDs := make(map[string]struct{}, len(doc.Nodes))

	for idx, node := range doc.Nodes {
		if node == nil || node.ID == "" {
			return fmt.Errorf("%w: node %d has no id", ErrInvalidDocument, idx)
		}

		if _, seen := nodeIDs[node.ID]; seen {
			return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, ErrNodeAlreadyExists, node.ID)
		}

		if !node.Kind.Valid() {
			return fmt.Errorf("%w: node %s: %w: %q", ErrInvalidDocument, node.ID, ErrInvalidNodeKind, node.Kind)
		}

		nodeIDs[node.ID] = struct{}{}
	}

	edgeIDs := make(map[string]struct{}, len(doc.Edges))

	for idx, edge := range doc.Edges {
		if edge == nil || edge.ID == "" {
			return fmt.Errorf("%w: edge %d has no id", ErrInvalidDocument, idx)
		}

		if _, seen := edgeIDs[edge.ID]; seen {
			return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, ErrEdgeAlreadyExists, edge.ID)
		}

		edgeIDs[edge.ID] = struct{}{}

		for _, endpoint := range []string{edge.SourceNodeID, edge.TargetNodeID} {
			if _, ok := nodeIDs[endpoint]; !ok {
				return fmt.Errorf("%w: edge %s references %w: %q", ErrInvalidDocument, edge.ID, ErrNodeNotFound, endpoint)
			}
		}
	}

	return nil
}
