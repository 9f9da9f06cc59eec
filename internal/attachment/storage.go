package attachment

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File is a stored attachment opened for reading.
type File interface {
	io.ReadSeekCloser
	Stat() (fs.FileInfo, error)
}

// Storage is a flat namespace of files keyed by generated name.
type Storage interface {
	// Create must fail if name already exists.
	Create(name string) (io.WriteCloser, error)
	Remove(name string) error
	Open(name string) (File, error)
}

// DirStorage keeps attachments as files directly under a base directory.
type DirStorage struct {
	base string
}

var _ Storage = (*DirStorage)(nil)

// NewDirStorage creates base if needed.
func NewDirStorage(base string) (*DirStorage, error) {
	if base == "" {
		return nil, fmt.Errorf("upload directory is empty")
	}
	s := &DirStorage{base: base}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DirStorage) Base() string { return s.base }

func (s *DirStorage) ensure() error {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	return nil
}

func (s *DirStorage) Create(name string) (io.WriteCloser, error) {
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(s.base, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

func (s *DirStorage) Remove(name string) error {
	return os.Remove(filepath.Join(s.base, name))
}

func (s *DirStorage) Open(name string) (File, error) {
	return os.Open(filepath.Join(s.base, name))
}
