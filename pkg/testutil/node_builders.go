// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// FixedTime is the clock used by builders that need a timestamp.
var FixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

// CreateTestNode creates a GraphNode of kind with default values that can be overridden.
func CreateTestNode(kind models.NodeKind, overrides ...func(*models.GraphNode)) *models.GraphNode {
	node := &models.GraphNode{
		ID:         uuid.NewString(),
		Kind:       kind,
		Position:   models.Position{X: 100, Y: 200},
		Attributes: models.DefaultAttributes(kind),
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.GraphNode) {
	return func(n *models.GraphNode) {
		n.ID = id
	}
}

// WithRecipient sets the node recipient email.
func WithRecipient(email string) func(*models.GraphNode) {
	return func(n *models.GraphNode) {
		n.Attributes.RecipientEmail = email
	}
}

// CreateTestEdge connects source to target.
func CreateTestEdge(id, source, target string, branch models.Branch) *models.GraphEdge {
	return &models.GraphEdge{
		ID:           id,
		SourceNodeID: source,
		TargetNodeID: target,
		Attributes:   models.EdgeAttributes{Branch: branch},
	}
}

// PublishableDocument returns start -> approval, with the approval's approve
// branch going to a notify step that ends, and its deny branch ending directly.
func PublishableDocument() *models.WorkflowDocument {
	doc := models.NewDocument(FixedTime)

	doc.Nodes = append(doc.Nodes,
		CreateTestNode(models.NodeKindApproval, WithID("approval"), WithRecipient("manager@example.com")),
		CreateTestNode(models.NodeKindNotify, WithID("notify"), WithRecipient("owner@example.com")),
		CreateTestNode(models.NodeKindEnd, WithID("end")),
	)

	doc.Edges = append(doc.Edges,
		CreateTestEdge("e-start", models.StartNodeID, "approval", ""),
		CreateTestEdge("e-approve", "approval", "notify", models.BranchApprove),
		CreateTestEdge("e-deny", "approval", "end", models.BranchDeny),
		CreateTestEdge("e-notify", "notify", "end", ""),
	)

	return doc
}
