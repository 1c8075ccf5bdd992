package persistence_test

import (
	"errors"
	"testing"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		missing := persistence.NewSlotError("Get", "workflow-builder:v1", persistence.ErrSlotNotFound)
		corrupt := persistence.NewSlotError("Get", "workflow-events:wf-1", persistence.ErrCorruptSlot)

		assert.True(t, persistence.IsSlotNotFound(missing))
		assert.False(t, persistence.IsCorruptSlot(missing))
		assert.True(t, persistence.IsCorruptSlot(corrupt))
		assert.True(t, persistence.IsDocumentNotFound(persistence.ErrDocumentNotFound))

		assert.True(t, errors.Is(missing, persistence.ErrSlotNotFound))
		assert.True(t, errors.Is(corrupt, persistence.ErrCorruptSlot))
	})

	t.Run("slot error contains context", func(t *testing.T) {
		err := persistence.NewSlotError("Put", "workflow-builder:active-workflow", errors.New("disk full"))

		assert.Contains(t, err.Error(), "Put")
		assert.Contains(t, err.Error(), "workflow-builder:active-workflow")
		assert.Contains(t, err.Error(), "disk full")
	})
}
