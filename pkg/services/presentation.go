package services

import (
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// RunState is how far execution has progressed through a node or edge.
type RunState string

const (
	RunStatePending   RunState = "pending"
	RunStateActive    RunState = "active"
	RunStateCompleted RunState = "completed"
)

// Presentation is a document decorated with transient execution state. It is
// computed on demand and never persisted.
type Presentation struct {
	Document   *models.WorkflowDocument `json:"document"`
	Selection  graph.Selection          `json:"selection"`
	WorkflowID string                   `json:"workflowId,omitempty"`
	Snapshot   models.StatusSnapshot    `json:"snapshot"`
	Nodes      map[string]RunState      `json:"nodes"`
	Edges      map[string]RunState      `json:"edges"`
}

// Present overlays snapshot onto doc. Approval nodes and edges follow the
// engine reported ids; start and end nodes follow the started and completed
// flags.
func Present(doc *models.WorkflowDocument, selection graph.Selection, workflowID string, snapshot models.StatusSnapshot) Presentation {
	p := Presentation{
		Document:   doc,
		Selection:  selection,
		WorkflowID: workflowID,
		Snapshot:   snapshot,
		Nodes:      make(map[string]RunState, len(doc.Nodes)),
		Edges:      make(map[string]RunState, len(doc.Edges)),
	}

	for _, node := range doc.Nodes {
		p.Nodes[node.ID] = nodeState(node, snapshot)
	}

	for _, edge := range doc.Edges {
		switch {
		case is(snapshot.CurrentEdgeID, edge.ID):
			p.Edges[edge.ID] = RunStateActive
		case snapshot.CompletedEdgeIDs.Contains(edge.ID):
			p.Edges[edge.ID] = RunStateCompleted
		default:
			p.Edges[edge.ID] = RunStatePending
		}
	}

	return p
}

func nodeState(node *models.GraphNode, snapshot models.StatusSnapshot) RunState {
	switch {
	case is(snapshot.CurrentApproverID, node.ID):
		return RunStateActive
	case snapshot.CompletedApproverIDs.Contains(node.ID):
		return RunStateCompleted
	}

	switch node.Kind {
	case models.NodeKindStart:
		if snapshot.Started {
			return RunStateCompleted
		}
	case models.NodeKindEnd:
		if snapshot.Completed {
			return RunStateCompleted
		}
	}

	return RunStatePending
}

func is(current *string, id string) bool {
	return current != nil && *current == id
}
