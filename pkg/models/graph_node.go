package models

import (
	"encoding/json"
	"slices"
	"strings"
)

// NodeKind is the type of step a node represents.
type NodeKind string

const (
	NodeKindStart    NodeKind = "start"
	NodeKindApproval NodeKind = "approval"
	NodeKindNotify   NodeKind = "notify"
	NodeKindEnd      NodeKind = "end"
)

// NodeKinds lists every supported kind in palette order.
var NodeKinds = []NodeKind{NodeKindStart, NodeKindApproval, NodeKindNotify, NodeKindEnd}

// ParseNodeKind accepts a kind regardless of case ("Approval" -> approval).
func ParseNodeKind(s string) (NodeKind, bool) {
	kind := NodeKind(strings.ToLower(strings.TrimSpace(s)))

	return kind, kind.Valid()
}

func (k NodeKind) Valid() bool {
	return slices.Contains(NodeKinds, k)
}

// Position is the canvas location of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset returns p moved by (dx, dy).
func (p Position) Offset(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// NodeAttributes holds the user editable data of a node.
type NodeAttributes struct {
	Label          string `json:"label,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
	ApproverName   string `json:"approverName,omitempty"`
}

// HasRecipient reports whether a recipient email is set.
func (a NodeAttributes) HasRecipient() bool {
	return strings.TrimSpace(a.RecipientEmail) != ""
}

// NodeAttributesPatch is a partial update; nil fields are left untouched.
type NodeAttributesPatch struct {
	Label          *string `json:"label,omitempty"`
	RecipientEmail *string `json:"recipientEmail,omitempty" validate:"omitnil,eq=|email"`
	ApproverName   *string `json:"approverName,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p NodeAttributesPatch) IsEmpty() bool {
	return p.Label == nil && p.RecipientEmail == nil && p.ApproverName == nil
}

// Merge shallow-merges the patch into a copy of a.
func (a NodeAttributes) Merge(p NodeAttributesPatch) NodeAttributes {
	if p.Label != nil {
		a.Label = *p.Label
	}

	if p.RecipientEmail != nil {
		a.RecipientEmail = *p.RecipientEmail
	}

	if p.ApproverName != nil {
		a.ApproverName = *p.ApproverName
	}

	return a
}

var defaultLabels = map[NodeKind]string{
	NodeKindStart:    "Start",
	NodeKindApproval: "Approval",
	NodeKindNotify:   "Notify",
	NodeKindEnd:      "End",
}

// DefaultAttributes returns the attributes a new node of kind is seeded with.
func DefaultAttributes(kind NodeKind) NodeAttributes {
	return NodeAttributes{Label: defaultLabels[kind]}
}

// GraphNode is a step in the authored workflow.
type GraphNode struct {
	ID         string         `json:"id"         validate:"required"`
	Kind       NodeKind       `json:"kind"       validate:"required,oneof=start approval notify end"`
	Position   Position       `json:"position"`
	Attributes NodeAttributes `json:"attributes"`
}

// UnmarshalJSON also accepts documents that name the kind "type".
func (n *GraphNode) UnmarshalJSON(data []byte) error {
	type plain GraphNode

	var raw struct {
		plain

		Type NodeKind `json:"type"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*n = GraphNode(raw.plain)
	if n.Kind == "" {
		n.Kind = raw.Type
	}

	return nil
}
