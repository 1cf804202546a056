// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileMeta is lightweight metadata for a vault file.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List walks dir and returns metadata for every .md file under it.
	List(dir string) ([]FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
}
