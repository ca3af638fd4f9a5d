package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Store keeps the session record at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for path, making sure its directory exists.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("session record path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	return &Store{path: path}, nil
}

// Path returns the record location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a record file is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// ModTime returns when the record was last written.
func (s *Store) ModTime() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Read returns the raw record.
func (s *Store) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	return data, nil
}

// Write replaces the record. The bytes land in a uniquely named temp file
// in the same directory and are renamed over the record, so readers never
// observe a partial write.
func (s *Store) Write(data []byte) error {
	suffix, err := gonanoid.New(10)
	if err != nil {
		return fmt.Errorf("failed to generate temp suffix: %w", err)
	}
	tempPath := s.path + "." + suffix + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write session record: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	file.Close()

	// Atomic replace
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session record: %w", err)
	}

	return nil
}

// Remove deletes the record. A missing record is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	return nil
}
