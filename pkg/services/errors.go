// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/graph"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/publisher"
	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/validation"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest  = errors.New("invalid request")
	ErrInvalidDocument = errors.New("invalid workflow document")

	// Publish gate (422 Unprocessable Entity).
	ErrNotPublishable = errors.New("workflow is not publishable")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ValidationError carries the violations that blocked a publish.
type ValidationError struct {
	Op         string
	Violations []validation.Violation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v (%d violations)", e.Op, ErrNotPublishable, len(e.Violations))
}

func (e *ValidationError) Unwrap() error {
	return ErrNotPublishable
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, graph.ErrInvalidNodeKind) ||
		errors.Is(err, graph.ErrInvalidBranch) ||
		errors.Is(err, graph.ErrInvalidDocument)
}

// IsConflictError checks if an error is a conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, graph.ErrNodeAlreadyExists) ||
		errors.Is(err, graph.ErrEdgeAlreadyExists)
}

// IsNotPublishable reports whether err blocked a publish on validation.
func IsNotPublishable(err error) bool {
	return errors.Is(err, ErrNotPublishable)
}

// ViolationsOf returns the violations carried by err, if any.
func ViolationsOf(err error) []validation.Violation {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations
	}

	return nil
}

// IsEngineError checks if an error came from the execution engine and should
// return HTTP 502.
func IsEngineError(err error) bool {
	return publisher.IsRejected(err) || publisher.IsUnavailable(err)
}
