// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotNotFound indicates a backend has no value stored under a key.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrDocumentNotFound indicates no document has been persisted yet.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrCorruptSlot indicates a stored value could not be decoded.
	ErrCorruptSlot = errors.New("corrupt slot value")

	// ErrEmptyWorkflowID indicates an event log operation without a workflow id.
	ErrEmptyWorkflowID = errors.New("workflow id cannot be empty")
)

// SlotError wraps slot-related errors with additional context.
type SlotError struct {
	Op  string // Operation being performed (e.g., "Get", "Put", "Delete")
	Key string // Slot key
	Err error  // Underlying error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("%s operation failed for slot %s: %v", e.Op, e.Key, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for slot errors.
func (e *SlotError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewSlotError creates a new slot error with context.
func NewSlotError(op, key string, err error) *SlotError {
	return &SlotError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsSlotNotFound checks if an error indicates a missing slot.
func IsSlotNotFound(err error) bool {
	return errors.Is(err, ErrSlotNotFound)
}

// IsDocumentNotFound checks if an error indicates no document was persisted.
func IsDocumentNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsCorruptSlot checks if an error indicates an undecodable slot value.
func IsCorruptSlot(err error) bool {
	return errors.Is(err, ErrCorruptSlot)
}
