// Package scanner defines the workspace file-system abstraction.
package scanner

import "github.com/devassist/companion/internal/models"

// Provider is the interface for reading the workspace being synchronized.
type Provider interface {
	// List walks the workspace root and returns metadata for every eligible file.
	List() ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
}
