// Package models defines the domain types shared across the companion.
package models

import "time"

// FileDocument is the unit of synchronization: one workspace file as it is
// pushed to the remote project. Content travels base64-encoded on the wire
// (encoding/json's []byte behaviour).
type FileDocument struct {
	Name       string    `json:"name"`
	Content    []byte    `json:"content"`
	Hash       string    `json:"hash"`
	LastSynced time.Time `json:"last_synced"`
}

// FileMetadata is a lightweight representation returned by workspace scans.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
