// Package models defines the approval workflow graph, the engine progress events
// and the status snapshot derived from them.
package models

import (
	"time"

	"github.com/mohae/deepcopy"
)

// Default values used for a freshly created document.
const (
	DefaultDocumentVersion = "1.0.0"
	DefaultDocumentAuthor  = "Workflow Builder"
	StartNodeID            = "start"
)

// DefaultStartPosition is where the start node of an empty document is placed.
var DefaultStartPosition = Position{X: 300, Y: 120}

// Metadata describes the document as a whole.
type Metadata struct {
	Version   string    `json:"version"`
	Author    string    `json:"author"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkflowDocument is the graph being authored. Nodes and edges are sets keyed by
// id; slices keep insertion order so the serialised form is stable.
type WorkflowDocument struct {
	Nodes    []*GraphNode `json:"nodes"    validate:"dive"`
	Edges    []*GraphEdge `json:"edges"    validate:"dive"`
	Metadata Metadata     `json:"metadata"`
}

// NewDocument returns the empty document: a single start node and no edges.
func NewDocument(now time.Time) *WorkflowDocument {
	return &WorkflowDocument{
		Nodes: []*GraphNode{
			{
				ID:         StartNodeID,
				Kind:       NodeKindStart,
				Position:   DefaultStartPosition,
				Attributes: DefaultAttributes(NodeKindStart),
			},
		},
		Edges: []*GraphEdge{},
		Metadata: Metadata{
			Version:   DefaultDocumentVersion,
			Author:    DefaultDocumentAuthor,
			UpdatedAt: now.UTC(),
		},
	}
}

// Clone returns a deep copy of the document.
func (d *WorkflowDocument) Clone() *WorkflowDocument {
	if d == nil {
		return nil
	}

	clone, ok := deepcopy.Copy(d).(*WorkflowDocument)
	if !ok {
		return nil
	}

	if clone.Nodes == nil {
		clone.Nodes = []*GraphNode{}
	}

	if clone.Edges == nil {
		clone.Edges = []*GraphEdge{}
	}

	return clone
}

// NodeByID returns the node with the given id, or nil.
func (d *WorkflowDocument) NodeByID(id string) *GraphNode {
	for _, node := range d.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// EdgeByID returns the edge with the given id, or nil.
func (d *WorkflowDocument) EdgeByID(id string) *GraphEdge {
	for _, edge := range d.Edges {
		if edge.ID == id {
			return edge
		}
	}

	return nil
}

// NodeIndex maps node ids to nodes.
func (d *WorkflowDocument) NodeIndex() map[string]*GraphNode {
	index := make(map[string]*GraphNode, len(d.Nodes))
	for _, node := range d.Nodes {
		index[node.ID] = node
	}

	return index
}

// IncidentEdges returns the edges whose source or target is nodeID.
func (d *WorkflowDocument) IncidentEdges(nodeID string) []*GraphEdge {
	var edges []*GraphEdge

	for _, edge := range d.Edges {
		if edge.SourceNodeID == nodeID || edge.TargetNodeID == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}
