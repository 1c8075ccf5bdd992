package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlots_KeyLayout(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{prefix: "", expected: "builder:workflow-builder:v1"},
		{prefix: "workflow-builder", expected: "workflow-builder:workflow-builder:v1"},
		{prefix: "workflow-builder:", expected: "workflow-builder:workflow-builder:v1"},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewSlots(nil, tt.prefix).key("workflow-builder:v1"))
		})
	}
}
