// Package web provides HTTP request and response types for the workflow builder API.
package web

import "github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"

// AddNodeRequest represents the request body for placing a new node.
type AddNodeRequest struct {
	Kind     string          `json:"kind"     validate:"required,oneof=start approval notify end"`
	Position models.Position `json:"position"`
}

// UpdateNodeRequest is a partial update of a node. Position moves the node;
// the attribute fields are merged into its data.
type UpdateNodeRequest struct {
	Position       *models.Position `json:"position,omitempty"`
	Label          *string          `json:"label,omitempty"          validate:"omitempty,max=120"`
	RecipientEmail *string          `json:"recipientEmail,omitempty" validate:"omitnil,eq=|email"`
	ApproverName   *string          `json:"approverName,omitempty"   validate:"omitempty,max=120"`
}

// Patch returns the attribute part of the request.
func (r UpdateNodeRequest) Patch() models.NodeAttributesPatch {
	return models.NodeAttributesPatch{
		Label:          r.Label,
		RecipientEmail: r.RecipientEmail,
		ApproverName:   r.ApproverName,
	}
}

// AddEdgeRequest represents the request body for connecting two nodes.
type AddEdgeRequest struct {
	ID           string `json:"id,omitempty"`
	SourceNodeID string `json:"sourceNodeId"     validate:"required"`
	TargetNodeID string `json:"targetNodeId"     validate:"required"`
	Branch       string `json:"branch,omitempty" validate:"omitempty,oneof=approve deny"`
}

// UpdateEdgeRequest changes the branch of an edge; an empty branch clears it.
type UpdateEdgeRequest struct {
	Branch *string `json:"branch" validate:"omitnil,eq=|oneof=approve deny"`
}

// SelectRequest focuses a node or an edge; both empty clears the focus.
type SelectRequest struct {
	NodeID string `json:"nodeId,omitempty" validate:"excluded_with=EdgeID"`
	EdgeID string `json:"edgeId,omitempty"`
}

// CreatedResponse reports the id of a created node or edge.
type CreatedResponse struct {
	ID      string `json:"id"`
	Warning string `json:"warning,omitempty"`
}

// MutationResponse acknowledges a change. Warning is set when the change was
// applied but could not be saved.
type MutationResponse struct {
	Status         string   `json:"status"`
	RemovedEdgeIDs []string `json:"removedEdgeIds,omitempty"`
	Warning        string   `json:"warning,omitempty"`
}

// PublishResponse reports the workflow id the engine assigned.
type PublishResponse struct {
	WorkflowID string `json:"workflowId"`
	Warning    string `json:"warning,omitempty"`
}
