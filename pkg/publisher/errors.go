package publisher

import (
	"errors"
	"fmt"
)

var (
	// ErrPublishRejected is returned when the engine answered but refused the workflow.
	ErrPublishRejected = errors.New("engine rejected workflow")
	// ErrEngineUnavailable is returned when the engine could not be reached.
	ErrEngineUnavailable = errors.New("engine unavailable")
)

// EngineError carries the engine's own explanation of a failed publish.
type EngineError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
	}

	return fmt.Sprintf("%v (status %d): %s", e.Err, e.StatusCode, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err means the engine refused the workflow.
func IsRejected(err error) bool {
	return errors.Is(err, ErrPublishRejected)
}

// IsUnavailable reports whether err means the engine could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrEngineUnavailable)
}
