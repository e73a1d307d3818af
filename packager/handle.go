package packager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Artifact is exported document wrapped as typed binary object.
type Artifact struct {
	Data      []byte
	MediaType string
}

// Handle is transient reference to artifact content. It must be released as
// soon as save is triggered.
type Handle struct {
	ID        string
	MediaType string
	Size      int64

	path string

	mu       sync.Mutex
	released bool
}

// Open stores artifact in temporary file under dir (system default when
// empty) and returns handle to it.
func Open(a Artifact, dir string) (*Handle, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("unable to generate handle id: %w", err)
	}

	f, err := os.CreateTemp(dir, "regraph-*.blob")
	if err != nil {
		return nil, fmt.Errorf("unable to create artifact storage: %w", err)
	}
	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("unable to store artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("unable to store artifact: %w", err)
	}

	return &Handle{
		ID:        "blob:" + id.String(),
		MediaType: a.MediaType,
		Size:      int64(len(a.Data)),
		path:      f.Name(),
	}, nil
}

// Reader opens artifact content for reading.
func (h *Handle) Reader() (io.ReadCloser, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, fmt.Errorf("handle %s is released", h.ID)
	}
	return os.Open(h.path)
}

// Release frees artifact storage. Releasing handle twice is not an error.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to release handle %s: %w", h.ID, err)
	}
	return nil
}

// Released reports whether handle was released.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
