// Package validation decides whether a workflow document may be published.
//
// The check is local: node degrees and attributes only. It does not look for
// cycles or verify that every node is reachable from the start node.
package validation

import (
	"fmt"
	"strings"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Code identifies a violated rule. Codes are stable and safe to match on.
type Code string

const (
	CodeEmptyGraph           Code = "empty_graph"
	CodeDanglingEdge         Code = "dangling_edge"
	CodeMissingOutgoing      Code = "missing_outgoing"
	CodeMissingIncoming      Code = "missing_incoming"
	CodeMissingRecipient     Code = "missing_recipient"
	CodeMissingApproveBranch Code = "missing_approve_branch"
	CodeMissingDenyBranch    Code = "missing_deny_branch"
	CodeUnknownKind          Code = "unknown_kind"
)

// Violation is one reason a document cannot be published.
type Violation struct {
	NodeID  string `json:"nodeId,omitempty"`
	EdgeID  string `json:"edgeId,omitempty"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of Validate.
type Result struct {
	Publishable bool        `json:"publishable"`
	Violations  []Violation `json:"violations"`
}

type degrees struct {
	in       int
	out      int
	branches map[models.Branch]int
}

// Validate checks doc against the per-kind rule table. A structurally corrupt
// document (no nodes, or an edge pointing at a missing node) is reported
// without evaluating the rule table.
func Validate(doc *models.WorkflowDocument) Result {
	if doc == nil || len(doc.Nodes) == 0 {
		return reject(Violation{Code: CodeEmptyGraph, Message: "workflow has no nodes"})
	}

	index := doc.NodeIndex()

	var dangling []Violation

	for _, edge := range doc.Edges {
		for _, endpoint := range []string{edge.SourceNodeID, edge.TargetNodeID} {
			if _, ok := index[endpoint]; !ok {
				dangling = append(dangling, Violation{
					EdgeID:  edge.ID,
					Code:    CodeDanglingEdge,
					Message: fmt.Sprintf("edge references missing node %q", endpoint),
				})
			}
		}
	}

	if len(dangling) > 0 {
		return reject(dangling...)
	}

	stats := make(map[string]*degrees, len(doc.Nodes))
	for _, node := range doc.Nodes {
		stats[node.ID] = &degrees{branches: map[models.Branch]int{}}
	}

	for _, edge := range doc.Edges {
		source := stats[edge.SourceNodeID]
		source.out++
		source.branches[edge.Attributes.Branch]++

		stats[edge.TargetNodeID].in++
	}

	var violations []Violation

	for _, node := range doc.Nodes {
		violations = append(violations, checkNode(node, stats[node.ID])...)
	}

	if len(violations) > 0 {
		return reject(violations...)
	}

	return Result{Publishable: true, Violations: []Violation{}}
}

// IsPublishable reports whether Validate finds no violations.
func IsPublishable(doc *models.WorkflowDocument) bool {
	return Validate(doc).Publishable
}

func checkNode(node *models.GraphNode, d *degrees) []Violation {
	var violations []Violation

	add := func(code Code, message string) {
		violations = append(violations, Violation{NodeID: node.ID, Code: code, Message: message})
	}

	needsIncoming := func() {
		if d.in < 1 {
			add(CodeMissingIncoming, fmt.Sprintf("%s node has no incoming edge", node.Kind))
		}
	}

	needsOutgoing := func() {
		if d.out < 1 {
			add(CodeMissingOutgoing, fmt.Sprintf("%s node has no outgoing edge", node.Kind))
		}
	}

	needsRecipient := func() {
		if strings.TrimSpace(node.Attributes.RecipientEmail) == "" {
			add(CodeMissingRecipient, fmt.Sprintf("%s node has no recipient email", node.Kind))
		}
	}

	switch node.Kind {
	case models.NodeKindStart:
		needsOutgoing()
	case models.NodeKindEnd:
		needsIncoming()
	case models.NodeKindNotify:
		needsIncoming()
		needsOutgoing()
		needsRecipient()
	case models.NodeKindApproval:
		needsIncoming()
		needsOutgoing()
		needsRecipient()

		if d.branches[models.BranchApprove] < 1 {
			add(CodeMissingApproveBranch, "approval node has no outgoing approve edge")
		}

		if d.branches[models.BranchDeny] < 1 {
			add(CodeMissingDenyBranch, "approval node has no outgoing deny edge")
		}
	default:
		add(CodeUnknownKind, fmt.Sprintf("unknown node kind %q", node.Kind))
	}

	return violations
}

func reject(violations ...Violation) Result {
	return Result{Publishable: false, Violations: violations}
}
