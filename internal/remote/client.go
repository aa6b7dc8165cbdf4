// Package remote implements the HTTP client for the DevAssist service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/devassist/companion/internal/apperr"
	"github.com/devassist/companion/internal/models"
)

// API is the remote surface the sync engine depends on.
type API interface {
	// UpsertFile creates or replaces the named file in the project.
	UpsertFile(ctx context.Context, doc models.FileDocument) error
	// ListFiles returns every file currently stored for the project.
	ListFiles(ctx context.Context) ([]RemoteFile, error)
	// DeleteFile removes the named file. A missing file returns apperr.ErrNotFound.
	DeleteFile(ctx context.Context, name string) error
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	project string
	apiKey  string
	http    *http.Client
}

// Verify *Client satisfies API at compile time.
var _ API = (*Client)(nil)

// NewClient creates a client for one project on the service at baseURL.
func NewClient(baseURL, project, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		project: project,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// fileURL builds the URL for one named file. File names contain forward
// slashes, so each segment is escaped individually to keep the path shape.
func (c *Client) fileURL(name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/v1/projects/%s/files/%s",
		c.baseURL, url.PathEscape(c.project), strings.Join(segs, "/"))
}

func (c *Client) listURL() string {
	return fmt.Sprintf("%s/v1/projects/%s/files", c.baseURL, url.PathEscape(c.project))
}

// UpsertFile uploads one file document via PUT.
func (c *Client) UpsertFile(ctx context.Context, doc models.FileDocument) error {
	body, err := json.Marshal(upsertFileRequest{
		Content:    doc.Content,
		Hash:       doc.Hash,
		LastSynced: doc.LastSynced,
	})
	if err != nil {
		return fmt.Errorf("remote: encode %s: %w", doc.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.fileURL(doc.Name), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("remote: upsert %s: %w", doc.Name, err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("remote: upsert %s: %w", doc.Name, statusError(resp))
	}
	return nil
}

// ListFiles fetches the names and hashes of every stored file.
func (c *Client) ListFiles(ctx context.Context) ([]RemoteFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: list files: %w", err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: list files: %w", statusError(resp))
	}
	var out listFilesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote: decode file list: %w", err)
	}
	return out.Files, nil
}

// DeleteFile removes one file from the project.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.fileURL(name), nil)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("remote: delete %s: %w", name, err)
	}
	defer drain(resp)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("remote: delete %s: %w", name, statusError(resp))
	}
	return nil
}

// do attaches the Bearer credential and executes the request.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

// statusError maps a non-success response to a sentinel where one applies,
// carrying the service's error message when it sent one.
func statusError(resp *http.Response) error {
	var body errResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", apperr.ErrUnauthorized, msg)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", apperr.ErrUnavailable, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
	}
}

// drain discards any remaining body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
