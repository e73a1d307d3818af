package packager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// Saver triggers save of artifact under given file name.
type Saver interface {
	Save(h *Handle, filename string) error
}

// DirSaver writes artifacts into directory.
type DirSaver struct {
	Dir       string
	Overwrite bool
}

func (s DirSaver) Save(h *Handle, filename string) (err error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	target := filepath.Join(s.Dir, filename)

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !s.Overwrite {
		flags |= os.O_EXCL
	}
	out, err := os.OpenFile(target, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("file '%s' already exists", target)
		}
		return fmt.Errorf("unable to create '%s': %w", target, err)
	}

	defer func() {
		err = multierr.Append(err, out.Close())
		if err != nil {
			// no partial documents
			os.Remove(target)
		}
	}()

	in, err := h.Reader()
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("unable to write '%s': %w", target, err)
	}
	return nil
}

// WriterSaver streams artifact into writer, file name is ignored.
type WriterSaver struct {
	W io.Writer
}

func (s WriterSaver) Save(h *Handle, _ string) error {
	in, err := h.Reader()
	if err != nil {
		return err
	}
	defer in.Close()

	if _, err := io.Copy(s.W, in); err != nil {
		return fmt.Errorf("unable to write artifact: %w", err)
	}
	return nil
}

// SaverFunc adapts function to Saver.
type SaverFunc func(h *Handle, filename string) error

func (f SaverFunc) Save(h *Handle, filename string) error {
	return f(h, filename)
}
