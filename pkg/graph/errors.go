package graph

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrEdgeNotFound      = errors.New("edge not found")
	ErrNodeAlreadyExists = errors.New("node already exists")
	ErrEdgeAlreadyExists = errors.New("edge already exists")
	ErrInvalidNodeKind   = errors.New("invalid node kind")
	ErrInvalidBranch     = errors.New("invalid branch")
	ErrInvalidDocument   = errors.New("invalid document")
)

// PersistError reports that a mutation was applied in memory but the document
// could not be written to durable storage. It is a warning: the store stays
// usable and the next successful mutation persists the full document again.
type PersistError struct {
	Intent string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("document changed by %s but not persisted: %v", e.Intent, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// IsPersistWarning reports whether err only signals a persistence failure.
func IsPersistWarning(err error) bool {
	var persistErr *PersistError

	return errors.As(err, &persistErr)
}

// IsNotFound reports whether err refers to a missing node or edge.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound)
}
