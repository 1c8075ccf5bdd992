// Package projector derives the live status of a published workflow from its
// event log. Every function here is pure: the same log always yields the same
// result, so callers recompute from scratch instead of patching state.
package projector

import (
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Project folds events, in order, over the zero snapshot.
func Project(events []models.WorkflowEvent) models.StatusSnapshot {
	snapshot := models.StatusSnapshot{
		CompletedApproverIDs: models.MirrorEngineIDs(nil),
		CompletedEdgeIDs:     models.MirrorEngineIDs(nil),
	}

	for _, event := range events {
		snapshot = Apply(snapshot, event)
	}

	return snapshot
}

// Apply returns the snapshot that results from one event. Unknown phases
// change nothing except the engine reported sets.
func Apply(snapshot models.StatusSnapshot, event models.WorkflowEvent) models.StatusSnapshot {
	detail := event.Detail

	switch event.Phase {
	case models.PhaseStarted:
		snapshot.Started = true
	case models.PhaseWaiting:
		snapshot.Waiting = true
		snapshot.CurrentApproverID = nil
		snapshot.CurrentEdgeID = nil

		if detail != nil {
			snapshot.CurrentApproverID = copyString(detail.CurrentApproverID)
			snapshot.CurrentEdgeID = copyString(detail.CurrentEdgeID)
		}
	case models.PhaseDecision:
		snapshot.Waiting = false

		if decision, ok := models.ParseDecision(event.Message); ok {
			snapshot.Decision = decision
		}

		snapshot.CurrentApproverID = nil
		snapshot.CurrentEdgeID = nil

		if detail != nil {
			snapshot.CurrentEdgeID = copyString(detail.CurrentEdgeID)
		}
	case models.PhaseNotifySent:
		// narration only
	case models.PhaseCompleted:
		snapshot.Completed = true
		snapshot.Waiting = false
		snapshot.CurrentApproverID = nil
		snapshot.CurrentEdgeID = nil
	}

	if detail != nil {
		if detail.CompletedApproverIDs != nil {
			snapshot.CompletedApproverIDs = models.MirrorEngineIDs(detail.CompletedApproverIDs)
		}

		if detail.CompletedEdgeIDs != nil {
			snapshot.CompletedEdgeIDs = models.MirrorEngineIDs(detail.CompletedEdgeIDs)
		}
	}

	return snapshot
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}

	v := *s

	return &v
}
