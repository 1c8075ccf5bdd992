package projector

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
)

// Tone hints how a timeline item should be highlighted.
type Tone string

const (
	ToneStarted  Tone = "started"
	ToneWaiting  Tone = "waiting"
	ToneApproved Tone = "approved"
	ToneDenied   Tone = "denied"
	ToneMail     Tone = "mail"
	ToneDone     Tone = "done"
)

// TimelineItem is one human readable line of a workflow's activity.
type TimelineItem struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Time        time.Time `json:"time"`
	// Duration is the time since the previous event, when there is one.
	Duration string `json:"duration,omitempty"`
	Tone     Tone   `json:"tone"`
}

// Timeline narrates the event log. Each decision is followed by a "sending
// result email" item, and completion reports the total run time.
func Timeline(events []models.WorkflowEvent) []TimelineItem {
	items := []TimelineItem{}

	for i, event := range events {
		var sincePrevious string
		if i > 0 {
			sincePrevious = FormatDuration(event.Timestamp.Sub(events[i-1].Timestamp))
		}

		key := func(suffix string) string {
			return strconv.Itoa(i) + "-" + suffix
		}

		switch event.Phase {
		case models.PhaseStarted:
			items = append(items, TimelineItem{
				Key:      key("started"),
				Title:    "Workflow started",
				Time:     event.Timestamp,
				Duration: sincePrevious,
				Tone:     ToneStarted,
			})
		case models.PhaseWaiting:
			description := "Approval email sent"
			if recipient := recipientOf(event); recipient != "" {
				description = "Approval email sent to " + recipient
			}

			items = append(items, TimelineItem{
				Key:         key("waiting"),
				Title:       "Waiting for approval",
				Description: description,
				Time:        event.Timestamp,
				Duration:    sincePrevious,
				Tone:        ToneWaiting,
			})
		case models.PhaseDecision:
			decision := TimelineItem{
				Key:         key("decision"),
				Title:       "Request denied",
				Description: "Approver rejected the request",
				Time:        event.Timestamp,
				Duration:    sincePrevious,
				Tone:        ToneDenied,
			}

			if event.Message == string(models.DecisionApprove) {
				decision.Title = "Request approved"
				decision.Description = "Approver accepted the request"
				decision.Tone = ToneApproved
			}

			items = append(items, decision, TimelineItem{
				Key:         key("send-final"),
				Title:       "Sending result email",
				Description: "Notifying workflow owner",
				Time:        event.Timestamp,
				Tone:        ToneMail,
			})
		case models.PhaseNotifySent:
			description := "Sending email"
			if recipient := recipientOf(event); recipient != "" {
				description = "To: " + recipient
			}

			items = append(items, TimelineItem{
				Key:         key("email"),
				Title:       "Sending email",
				Description: description,
				Time:        event.Timestamp,
				Tone:        ToneMail,
			})
		case models.PhaseCompleted:
			items = append(items, TimelineItem{
				Key:         key("completed"),
				Title:       "Workflow completed",
				Description: "Total time: " + FormatDuration(event.Timestamp.Sub(events[0].Timestamp)),
				Time:        event.Timestamp,
				Tone:        ToneDone,
			})
		}
	}

	return items
}

// FormatDuration renders d as "N ms" below a second, "N sec" below a minute
// and "Nm Ns" above.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}

	sec := int64(d / time.Second)
	if sec < 60 {
		return fmt.Sprintf("%d sec", sec)
	}

	return fmt.Sprintf("%dm %ds", sec/60, sec%60)
}

func recipientOf(event models.WorkflowEvent) string {
	if event.Detail == nil {
		return ""
	}

	return event.Detail.Recipient
}
