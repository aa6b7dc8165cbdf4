package remote

import "time"

// upsertFileRequest is the request body for uploading one file.
// Content is base64-encoded on the wire by encoding/json.
type upsertFileRequest struct {
	Content    []byte    `json:"content"`
	Hash       string    `json:"hash"`
	LastSynced time.Time `json:"last_synced"`
}

// RemoteFile is one entry in a project file listing.
type RemoteFile struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// listFilesResponse wraps a project file listing.
type listFilesResponse struct {
	Files []RemoteFile `json:"files"`
}

// errResponse is the error envelope returned by the service.
type errResponse struct {
	Error string `json:"error"`
}
