// Package file provides file-based persistence: one file per slot under a root directory.
package file

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shubham-projects-cv/dmacq-workflow-builder/pkg/persistence"
)

const slotExtension = ".slot"

// Slots implements persistence.Slots using the file system.
type Slots struct {
	root string
}

var _ persistence.Slots = (*Slots)(nil)

// NewSlots creates file slots rooted at root; a "file://" prefix is stripped.
func NewSlots(root string) *Slots {
	return &Slots{root: strings.Replace(root, "file://", "", 1)}
}

// NewPersistence creates a file-backed persistence.Persistence.
func NewPersistence(root string) persistence.Persistence {
	return persistence.NewCache(NewSlots(root))
}

func (s *Slots) path(key string) string {
	return filepath.Join(s.root, url.QueryEscape(key)+slotExtension)
}

// Get reads a slot file.
func (s *Slots) Get(_ context.Context, key string) ([]byte, error) {
	body, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrSlotNotFound
		}

		return nil, persistence.NewSlotError("Get", key, err)
	}

	return body, nil
}

// Put writes the value to a temporary file and renames it over the slot, so a
// reader never observes a partially written value.
func (s *Slots) Put(_ context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.root, 0750); err != nil {
		return fmt.Errorf("failed to create slots directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return persistence.NewSlotError("Put", key, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return persistence.NewSlotError("Put", key, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return persistence.NewSlotError("Put", key, err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)

		return persistence.NewSlotError("Put", key, err)
	}

	return nil
}

// Delete removes a slot file.
func (s *Slots) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return persistence.NewSlotError("Delete", key, err)
	}

	return nil
}

// Clear removes every slot file under the root.
func (s *Slots) Clear(_ context.Context) error {
	files, err := fs.Glob(os.DirFS(s.root), "*"+slotExtension)
	if err != nil {
		return fmt.Errorf("failed to list slot files: %w", err)
	}

	for _, name := range files {
		err := os.Remove(filepath.Join(s.root, name))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove slot file %s: %w", name, err)
		}
	}

	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (s *Slots) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (s *Slots) Close(_ context.Context) error {
	return nil
}
