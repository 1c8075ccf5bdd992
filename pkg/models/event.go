package models

import (
	"encoding/json"
	"time"
)

// Phase is the kind of progress a WorkflowEvent reports.
type Phase string

const (
	PhaseStarted    Phase = "STARTED"
	PhaseWaiting    Phase = "WAITING"
	PhaseDecision   Phase = "DECISION"
	PhaseNotifySent Phase = "NOTIFY_SENT"
	PhaseCompleted  Phase = "COMPLETED"

	// legacyPhaseEmailSent is emitted by older engines for notify steps.
	legacyPhaseEmailSent Phase = "EMAIL_SENT"
)

// Terminal reports whether no further events follow this phase.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted
}

func normalizePhase(p Phase) Phase {
	if p == legacyPhaseEmailSent {
		return PhaseNotifySent
	}

	return p
}

// EventDetail carries the engine supplied context of an event. A nil id list
// means the engine did not report it; an empty non-nil list means it reported
// an empty set.
type EventDetail struct {
	Recipient            string   `json:"recipient,omitempty"`
	CurrentApproverID    *string  `json:"currentApproverId,omitempty"`
	CurrentEdgeID        *string  `json:"currentEdgeId,omitempty"`
	CompletedApproverIDs []string `json:"completedApproverIds,omitempty"`
	CompletedEdgeIDs     []string `json:"completedEdgeIds,omitempty"`
}

// MarshalJSON keeps reported-but-empty id lists in the output.
func (d EventDetail) MarshalJSON() ([]byte, error) {
	out := map[string]any{}

	if d.Recipient != "" {
		out["recipient"] = d.Recipient
	}

	if d.CurrentApproverID != nil {
		out["currentApproverId"] = *d.CurrentApproverID
	}

	if d.CurrentEdgeID != nil {
		out["currentEdgeId"] = *d.CurrentEdgeID
	}

	if d.CompletedApproverIDs != nil {
		out["completedApproverIds"] = d.CompletedApproverIDs
	}

	if d.CompletedEdgeIDs != nil {
		out["completedEdgeIds"] = d.CompletedEdgeIDs
	}

	return json.Marshal(out)
}

// UnmarshalJSON also accepts the legacy "to" field for the recipient.
func (d *EventDetail) UnmarshalJSON(data []byte) error {
	var raw struct {
		Recipient            string   `json:"recipient"`
		To                   string   `json:"to"`
		CurrentApproverID    *string  `json:"currentApproverId"`
		CurrentEdgeID        *string  `json:"currentEdgeId"`
		CompletedApproverIDs []string `json:"completedApproverIds"`
		CompletedEdgeIDs     []string `json:"completedEdgeIds"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = EventDetail{
		Recipient:            raw.Recipient,
		CurrentApproverID:    raw.CurrentApproverID,
		CurrentEdgeID:        raw.CurrentEdgeID,
		CompletedApproverIDs: raw.CompletedApproverIDs,
		CompletedEdgeIDs:     raw.CompletedEdgeIDs,
	}

	if d.Recipient == "" {
		d.Recipient = raw.To
	}

	return nil
}

// WorkflowEvent is one unit of remote execution progress.
type WorkflowEvent struct {
	WorkflowID string       `json:"workflowId"`
	Phase      Phase        `json:"phase"`
	Message    string       `json:"message,omitempty"`
	Detail     *EventDetail `json:"detail,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
	// Sequence is an optional per-workflow monotonic counter; zero means absent.
	Sequence uint64 `json:"seq,omitempty"`
}

// UnmarshalJSON accepts both the current field names and the legacy
// status/meta names used by older engines.
func (e *WorkflowEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		WorkflowID string       `json:"workflowId"`
		Phase      Phase        `json:"phase"`
		Status     Phase        `json:"status"`
		Message    string       `json:"message"`
		Detail     *EventDetail `json:"detail"`
		Meta       *EventDetail `json:"meta"`
		Timestamp  time.Time    `json:"timestamp"`
		Sequence   uint64       `json:"seq"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = WorkflowEvent{
		WorkflowID: raw.WorkflowID,
		Phase:      raw.Phase,
		Message:    raw.Message,
		Detail:     raw.Detail,
		Timestamp:  raw.Timestamp,
		Sequence:   raw.Sequence,
	}

	if e.Phase == "" {
		e.Phase = raw.Status
	}

	if e.Detail == nil {
		e.Detail = raw.Meta
	}

	e.Phase = normalizePhase(e.Phase)

	return nil
}

// HasPhase reports whether any event in the log has the given phase.
func HasPhase(events []WorkflowEvent, phase Phase) bool {
	for _, event := range events {
		if event.Phase == phase {
			return true
		}
	}

	return false
}
