package projector_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/projector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string {
	return &s
}

var t0 = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func event(phase models.Phase, offset time.Duration) models.WorkflowEvent {
	return models.WorkflowEvent{WorkflowID: "wf-1", Phase: phase, Timestamp: t0.Add(offset)}
}

func approvalLog() []models.WorkflowEvent {
	waiting := event(models.PhaseWaiting, 2*time.Second)
	waiting.Detail = &models.EventDetail{CurrentApproverID: ptr("a1"), CurrentEdgeID: ptr("e-start")}

	return []models.WorkflowEvent{event(models.PhaseStarted, 0), waiting}
}

func TestProject_EmptyLog(t *testing.T) {
	snapshot := projector.Project(nil)

	assert.False(t, snapshot.Started)
	assert.False(t, snapshot.Waiting)
	assert.False(t, snapshot.Completed)
	assert.Equal(t, models.DecisionNone, snapshot.Decision)
	assert.Nil(t, snapshot.CurrentApproverID)
	assert.Nil(t, snapshot.CurrentEdgeID)
	assert.Empty(t, snapshot.CompletedApproverIDs.IDs())

	body, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"started": false,
		"waiting": false,
		"decision": null,
		"completed": false,
		"currentApproverId": null,
		"currentEdgeId": null,
		"completedApproverIds": [],
		"completedEdgeIds": []
	}`, string(body))
}

func TestProject_Lifecycle(t *testing.T) {
	log := approvalLog()

	snapshot := projector.Project(log)
	assert.True(t, snapshot.Started)
	assert.True(t, snapshot.Waiting)
	assert.Equal(t, models.DecisionNone, snapshot.Decision)
	assert.False(t, snapshot.Completed)
	require.NotNil(t, snapshot.CurrentApproverID)
	assert.Equal(t, "a1", *snapshot.CurrentApproverID)

	decision := event(models.PhaseDecision, 5*time.Second)
	decision.Message = "approve"
	log = append(log, decision)

	snapshot = projector.Project(log)
	assert.False(t, snapshot.Waiting)
	assert.Equal(t, models.DecisionApprove, snapshot.Decision)
	assert.Nil(t, snapshot.CurrentApproverID)
	assert.Nil(t, snapshot.CurrentEdgeID, "edge cleared when the decision does not report one")

	log = append(log, event(models.PhaseCompleted, 9*time.Second))

	snapshot = projector.Project(log)
	assert.True(t, snapshot.Completed)
	assert.False(t, snapshot.Waiting)
	assert.Nil(t, snapshot.CurrentApproverID)
	assert.Nil(t, snapshot.CurrentEdgeID)
	assert.Equal(t, models.DecisionApprove, snapshot.Decision)
}

func TestProject_WaitingOverwritesCurrentIDs(t *testing.T) {
	log := approvalLog()
	log = append(log, event(models.PhaseWaiting, 3*time.Second))

	snapshot := projector.Project(log)
	assert.True(t, snapshot.Waiting)
	assert.Nil(t, snapshot.CurrentApproverID)
	assert.Nil(t, snapshot.CurrentEdgeID)
}

func TestProject_DecisionUpdatesEdgeWhenReported(t *testing.T) {
	decision := event(models.PhaseDecision, time.Second)
	decision.Message = "deny"
	decision.Detail = &models.EventDetail{CurrentEdgeID: ptr("e-deny")}

	snapshot := projector.Project(append(approvalLog(), decision))
	assert.Equal(t, models.DecisionDeny, snapshot.Decision)
	require.NotNil(t, snapshot.CurrentEdgeID)
	assert.Equal(t, "e-deny", *snapshot.CurrentEdgeID)
}

func TestProject_DecisionWithoutEdgeClearsCurrentEdge(t *testing.T) {
	decision := event(models.PhaseDecision, time.Second)
	decision.Message = "deny"

	snapshot := projector.Project(append(approvalLog(), decision))
	assert.Equal(t, models.DecisionDeny, snapshot.Decision)
	assert.Nil(t, snapshot.CurrentApproverID)
	assert.Nil(t, snapshot.CurrentEdgeID)

	decision.Detail = &models.EventDetail{CompletedEdgeIDs: []string{"e-start"}}

	snapshot = projector.Project(append(approvalLog(), decision))
	assert.Nil(t, snapshot.CurrentEdgeID)
	assert.Equal(t, []string{"e-start"}, snapshot.CompletedEdgeIDs.IDs())
}

func TestProject_UnknownDecisionMessageKeepsDecision(t *testing.T) {
	decision := event(models.PhaseDecision, time.Second)
	decision.Message = "escalated"

	snapshot := projector.Project(append(approvalLog(), decision))
	assert.False(t, snapshot.Waiting)
	assert.Equal(t, models.DecisionNone, snapshot.Decision)
}

func TestProject_CompletedSetsAreReplacedWholesale(t *testing.T) {
	first := event(models.PhaseDecision, time.Second)
	first.Detail = &models.EventDetail{
		CompletedApproverIDs: []string{"a1", "a2"},
		CompletedEdgeIDs:     []string{"e1"},
	}

	second := event(models.PhaseNotifySent, 2*time.Second)
	second.Detail = &models.EventDetail{CompletedApproverIDs: []string{"a3"}}

	third := event(models.PhaseNotifySent, 3*time.Second)
	third.Detail = &models.EventDetail{Recipient: "owner@example.com"}

	snapshot := projector.Project([]models.WorkflowEvent{first, second, third})
	assert.Equal(t, []string{"a3"}, snapshot.CompletedApproverIDs.IDs())
	assert.Equal(t, []string{"e1"}, snapshot.CompletedEdgeIDs.IDs())

	cleared := event(models.PhaseNotifySent, 4*time.Second)
	cleared.Detail = &models.EventDetail{CompletedEdgeIDs: []string{}}

	snapshot = projector.Project([]models.WorkflowEvent{first, cleared})
	assert.Empty(t, snapshot.CompletedEdgeIDs.IDs())
	assert.Equal(t, []string{"a1", "a2"}, snapshot.CompletedApproverIDs.IDs())
}

func TestProject_DoesNotDeduplicate(t *testing.T) {
	log := approvalLog()
	log = append(log, log[0])

	snapshot := projector.Project(log)
	assert.True(t, snapshot.Started)
	assert.True(t, snapshot.Waiting)
}

func TestProject_IsIdempotent(t *testing.T) {
	decision := event(models.PhaseDecision, 5*time.Second)
	decision.Message = "approve"
	decision.Detail = &models.EventDetail{CompletedApproverIDs: []string{"a1"}, CompletedEdgeIDs: []string{"e-start"}}

	log := append(approvalLog(), decision, event(models.PhaseCompleted, 6*time.Second))

	first, err := json.Marshal(projector.Project(log))
	require.NoError(t, err)

	second, err := json.Marshal(projector.Project(log))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestProject_DoesNotAliasEventDetail(t *testing.T) {
	log := approvalLog()

	snapshot := projector.Project(log)
	*log[1].Detail.CurrentApproverID = "changed"
	log[1].Detail.CompletedEdgeIDs = []string{"x"}

	assert.Equal(t, "a1", *snapshot.CurrentApproverID)
	assert.Empty(t, snapshot.CompletedEdgeIDs.IDs())
}

func TestProject_LegacyEngineEvents(t *testing.T) {
	raw := `[
		{"workflowId":"wf-1","status":"STARTED","timestamp":"2026-05-01T10:00:00Z"},
		{"workflowId":"wf-1","status":"WAITING","meta":{"to":"boss@example.com","currentApproverId":"a1"},"timestamp":"2026-05-01T10:00:01Z"},
		{"workflowId":"wf-1","status":"DECISION","message":"deny","timestamp":"2026-05-01T10:00:03Z"},
		{"workflowId":"wf-1","status":"EMAIL_SENT","meta":{"to":"owner@example.com"},"timestamp":"2026-05-01T10:00:04Z"},
		{"workflowId":"wf-1","status":"COMPLETED","timestamp":"2026-05-01T10:01:10Z"}
	]`

	var log []models.WorkflowEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &log))

	snapshot := projector.Project(log)
	assert.True(t, snapshot.Started)
	assert.True(t, snapshot.Completed)
	assert.Equal(t, models.DecisionDeny, snapshot.Decision)
	assert.Equal(t, models.PhaseNotifySent, log[3].Phase)
}
