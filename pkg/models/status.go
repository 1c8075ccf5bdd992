package models

import (
	"encoding/json"
	"slices"
)

// Decision is the outcome of an approval step; the zero value means none yet.
type Decision string

const (
	DecisionNone    Decision = ""
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
)

// ParseDecision maps an event message to a decision.
func ParseDecision(message string) (Decision, bool) {
	switch Decision(message) {
	case DecisionApprove, DecisionDeny:
		return Decision(message), true
	default:
		return DecisionNone, false
	}
}

// MarshalJSON encodes DecisionNone as null.
func (d Decision) MarshalJSON() ([]byte, error) {
	if d == DecisionNone {
		return []byte("null"), nil
	}

	return json.Marshal(string(d))
}

func (d *Decision) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == nil {
		*d = DecisionNone

		return nil
	}

	*d = Decision(*s)

	return nil
}

// EngineIDs is a set of ids whose membership is decided by the execution engine
// alone. The client never derives it; it only mirrors the latest list reported.
type EngineIDs struct {
	ids []string
}

// MirrorEngineIDs wraps an engine reported list.
func MirrorEngineIDs(ids []string) EngineIDs {
	return EngineIDs{ids: slices.Clone(ids)}
}

// IDs returns a copy of the ids in engine order.
func (e EngineIDs) IDs() []string {
	if len(e.ids) == 0 {
		return []string{}
	}

	return slices.Clone(e.ids)
}

func (e EngineIDs) Contains(id string) bool {
	return slices.Contains(e.ids, id)
}

func (e EngineIDs) Len() int {
	return len(e.ids)
}

func (e EngineIDs) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.IDs())
}

func (e *EngineIDs) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}

	e.ids = ids

	return nil
}

// StatusSnapshot is the projection of a workflow's event log at a point in time.
// It is derived only; see projector.Project.
type StatusSnapshot struct {
	Started              bool      `json:"started"`
	Waiting              bool      `json:"waiting"`
	Decision             Decision  `json:"decision"`
	Completed            bool      `json:"completed"`
	CurrentApproverID    *string   `json:"currentApproverId"`
	CurrentEdgeID        *string   `json:"currentEdgeId"`
	CompletedApproverIDs EngineIDs `json:"completedApproverIds"`
	CompletedEdgeIDs     EngineIDs `json:"completedEdgeIds"`
}
