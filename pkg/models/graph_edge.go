package models

// Branch labels the outgoing paths of an approval node.
type Branch string

const (
	BranchApprove Branch = "approve"
	BranchDeny    Branch = "deny"
)

func (b Branch) Valid() bool {
	return b == BranchApprove || b == BranchDeny
}

// EdgeAttributes holds the user editable data of an edge.
type EdgeAttributes struct {
	Branch Branch `json:"branch,omitempty" validate:"omitempty,oneof=approve deny"`
}

// EdgeAttributesPatch is a partial update; a nil Branch is left untouched and a
// pointer to "" clears it.
type EdgeAttributesPatch struct {
	Branch *Branch `json:"branch,omitempty" validate:"omitnil,eq=|oneof=approve deny"`
}

func (p EdgeAttributesPatch) IsEmpty() bool {
	return p.Branch == nil
}

// Merge shallow-merges the patch into a copy of a.
func (a EdgeAttributes) Merge(p EdgeAttributesPatch) EdgeAttributes {
	if p.Branch != nil {
		a.Branch = *p.Branch
	}

	return a
}

// GraphEdge is a transition between two nodes.
type GraphEdge struct {
	ID           string         `json:"id"           validate:"required"`
	SourceNodeID string         `json:"sourceNodeId" validate:"required"`
	TargetNodeID string         `json:"targetNodeId" validate:"required"`
	Attributes   EdgeAttributes `json:"attributes"`
}
