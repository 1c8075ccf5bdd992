// Package persistencetest holds the conformance tests every slot backend must pass.
package persistencetest

import (
	"testing"
	"time"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/models"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSlotsSuite exercises a raw backend. newSlots must return an empty backend.
func RunSlotsSuite(t *testing.T, newSlots func(t *testing.T) persistence.Slots) {
	t.Helper()

	t.Run("get missing slot", func(t *testing.T) {
		slots := newSlots(t)

		_, err := slots.Get(t.Context(), "missing")
		require.Error(t, err)
		assert.True(t, persistence.IsSlotNotFound(err))
	})

	t.Run("put then get", func(t *testing.T) {
		slots := newSlots(t)

		require.NoError(t, slots.Put(t.Context(), "workflow-events:wf-1", []byte(`[1,2]`)))

		body, err := slots.Get(t.Context(), "workflow-events:wf-1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`[1,2]`), body)
	})

	t.Run("put overwrites whole value", func(t *testing.T) {
		slots := newSlots(t)

		require.NoError(t, slots.Put(t.Context(), "k", []byte("a much longer first value")))
		require.NoError(t, slots.Put(t.Context(), "k", []byte("short")))

		body, err := slots.Get(t.Context(), "k")
		require.NoError(t, err)
		assert.Equal(t, "short", string(body))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		slots := newSlots(t)

		require.NoError(t, slots.Put(t.Context(), "k", []byte("v")))
		require.NoError(t, slots.Delete(t.Context(), "k"))
		require.NoError(t, slots.Delete(t.Context(), "k"))

		_, err := slots.Get(t.Context(), "k")
		assert.True(t, persistence.IsSlotNotFound(err))
	})

	t.Run("clear removes every slot", func(t *testing.T) {
		slots := newSlots(t)

		require.NoError(t, slots.Put(t.Context(), "a", []byte("1")))
		require.NoError(t, slots.Put(t.Context(), "b", []byte("2")))
		require.NoError(t, slots.Clear(t.Context()))

		for _, key := range []string{"a", "b"} {
			_, err := slots.Get(t.Context(), key)
			assert.True(t, persistence.IsSlotNotFound(err), key)
		}
	})
}

// RunCacheSuite exercises the typed cache layout on top of a backend.
func RunCacheSuite(t *testing.T, newSlots func(t *testing.T) persistence.Slots) {
	t.Helper()

	newCache := func(t *testing.T) *persistence.Cache {
		t.Helper()

		return persistence.NewCache(newSlots(t))
	}

	t.Run("document round trip", func(t *testing.T) {
		cache := newCache(t)

		_, err := cache.LoadDocument(t.Context())
		assert.True(t, persistence.IsDocumentNotFound(err))

		doc := models.NewDocument(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		doc.Nodes = append(doc.Nodes, &models.GraphNode{
			ID:         "n1",
			Kind:       models.NodeKindApproval,
			Position:   models.Position{X: 10, Y: 20},
			Attributes: models.NodeAttributes{Label: "Manager", RecipientEmail: "boss@example.com"},
		})
		doc.Edges = append(doc.Edges, &models.GraphEdge{ID: "e1", SourceNodeID: "start", TargetNodeID: "n1"})

		require.NoError(t, cache.SaveDocument(t.Context(), doc))

		loaded, err := cache.LoadDocument(t.Context())
		require.NoError(t, err)
		assert.Equal(t, doc, loaded)
	})

	t.Run("event log round trip and eviction", func(t *testing.T) {
		cache := newCache(t)

		events, err := cache.LoadEventLog(t.Context(), "wf-1")
		require.NoError(t, err)
		assert.Empty(t, events)

		approver := "a1"
		log := []models.WorkflowEvent{
			{WorkflowID: "wf-1", Phase: models.PhaseStarted, Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
			{
				WorkflowID: "wf-1",
				Phase:      models.PhaseWaiting,
				Detail:     &models.EventDetail{CurrentApproverID: &approver, CompletedEdgeIDs: []string{}},
				Timestamp:  time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
			},
		}

		require.NoError(t, cache.SaveEventLog(t.Context(), "wf-1", log))

		loaded, err := cache.LoadEventLog(t.Context(), "wf-1")
		require.NoError(t, err)
		assert.Equal(t, log, loaded)

		require.NoError(t, cache.DeleteEventLog(t.Context(), "wf-1"))

		loaded, err = cache.LoadEventLog(t.Context(), "wf-1")
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("event log requires workflow id", func(t *testing.T) {
		cache := newCache(t)

		_, err := cache.LoadEventLog(t.Context(), "")
		assert.ErrorIs(t, err, persistence.ErrEmptyWorkflowID)
		assert.ErrorIs(t, cache.SaveEventLog(t.Context(), "", nil), persistence.ErrEmptyWorkflowID)
	})

	t.Run("flags", func(t *testing.T) {
		cache := newCache(t)

		active, err := cache.ActiveWorkflow(t.Context())
		require.NoError(t, err)
		assert.Empty(t, active)

		require.NoError(t, cache.SetActiveWorkflow(t.Context(), "wf-9"))

		active, err = cache.ActiveWorkflow(t.Context())
		require.NoError(t, err)
		assert.Equal(t, "wf-9", active)

		require.NoError(t, cache.ClearActiveWorkflow(t.Context()))

		active, err = cache.ActiveWorkflow(t.Context())
		require.NoError(t, err)
		assert.Empty(t, active)

		dismissed, err := cache.PanelDismissed(t.Context())
		require.NoError(t, err)
		assert.False(t, dismissed)

		require.NoError(t, cache.SetPanelDismissed(t.Context(), true))

		dismissed, err = cache.PanelDismissed(t.Context())
		require.NoError(t, err)
		assert.True(t, dismissed)
	})

	t.Run("reset clears all slots", func(t *testing.T) {
		cache := newCache(t)

		require.NoError(t, cache.SaveDocument(t.Context(), models.NewDocument(time.Now())))
		require.NoError(t, cache.SaveEventLog(t.Context(), "wf-1", []models.WorkflowEvent{{WorkflowID: "wf-1", Phase: models.PhaseStarted}}))
		require.NoError(t, cache.SetActiveWorkflow(t.Context(), "wf-1"))
		require.NoError(t, cache.SetPanelDismissed(t.Context(), true))

		require.NoError(t, cache.Reset(t.Context()))

		_, err := cache.LoadDocument(t.Context())
		assert.True(t, persistence.IsDocumentNotFound(err))

		events, err := cache.LoadEventLog(t.Context(), "wf-1")
		require.NoError(t, err)
		assert.Empty(t, events)

		active, err := cache.ActiveWorkflow(t.Context())
		require.NoError(t, err)
		assert.Empty(t, active)

		dismissed, err := cache.PanelDismissed(t.Context())
		require.NoError(t, err)
		assert.False(t, dismissed)
	})
}
