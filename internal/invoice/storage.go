package invoice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage defines the interface for staging uploaded invoice documents
type Storage interface {
	// Save stages a document and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a staged document by path
	Get(path string) ([]byte, error)

	// Delete removes a staged document
	Delete(path string) error
}

// LocalStorage implements the Storage interface using the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance rooted at basePath,
// creating the directory if needed
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// contained rejects names that would resolve outside the storage root.
// Staged names are service-generated, but they round-trip through the
// database and are used to serve the document back later.
func contained(name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid document name: %q", name)
	}
	return nil
}

// Save writes a document under the storage root
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	if err := contained(filename); err != nil {
		return "", err
	}
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get reads a document back from the storage root
func (l *LocalStorage) Get(path string) ([]byte, error) {
	if err := contained(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(l.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a document from the storage root
func (l *LocalStorage) Delete(path string) error {
	if err := contained(path); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.basePath, path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
