package projector_test

import (
	"testing"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/projector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeline(t *testing.T) {
	waiting := event(models.PhaseWaiting, 1500*time.Millisecond)
	waiting.Detail = &models.EventDetail{Recipient: "boss@example.com"}

	decision := event(models.PhaseDecision, 95*time.Second)
	decision.Message = "approve"

	notify := event(models.PhaseNotifySent, 96*time.Second)
	notify.Detail = &models.EventDetail{Recipient: "owner@example.com"}

	log := []models.WorkflowEvent{
		event(models.PhaseStarted, 0),
		waiting,
		decision,
		notify,
		event(models.PhaseCompleted, 125*time.Second),
	}

	items := projector.Timeline(log)
	require.Len(t, items, 6)

	assert.Equal(t, "0-started", items[0].Key)
	assert.Equal(t, "Workflow started", items[0].Title)
	assert.Empty(t, items[0].Duration)

	assert.Equal(t, "Waiting for approval", items[1].Title)
	assert.Equal(t, "Approval email sent to boss@example.com", items[1].Description)
	assert.Equal(t, "1 sec", items[1].Duration)

	assert.Equal(t, "Request approved", items[2].Title)
	assert.Equal(t, projector.ToneApproved, items[2].Tone)
	assert.Equal(t, "1m 33s", items[2].Duration)

	assert.Equal(t, "2-send-final", items[3].Key)
	assert.Equal(t, "Sending result email", items[3].Title)

	assert.Equal(t, "To: owner@example.com", items[4].Description)

	assert.Equal(t, "Workflow completed", items[5].Title)
	assert.Equal(t, "Total time: 2m 5s", items[5].Description)
	assert.Equal(t, t0.Add(125*time.Second), items[5].Time)
}

func TestTimeline_Fallbacks(t *testing.T) {
	decision := event(models.PhaseDecision, 0)
	decision.Message = "deny"

	items := projector.Timeline([]models.WorkflowEvent{
		event(models.PhaseWaiting, 0),
		decision,
		event(models.PhaseNotifySent, 0),
	})

	require.Len(t, items, 4)
	assert.Equal(t, "Approval email sent", items[0].Description)
	assert.Equal(t, "Request denied", items[1].Title)
	assert.Equal(t, "0 ms", items[1].Duration)
	assert.Equal(t, "Sending email", items[3].Description)
}

func TestTimeline_Empty(t *testing.T) {
	items := projector.Timeline(nil)

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 250 * time.Millisecond, want: "250 ms"},
		{in: time.Second, want: "1 sec"},
		{in: 59*time.Second + 900*time.Millisecond, want: "59 sec"},
		{in: time.Minute, want: "1m 0s"},
		{in: 61*time.Minute + 5*time.Second, want: "61m 5s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, projector.FormatDuration(tt.in), tt.in.String())
	}
}
