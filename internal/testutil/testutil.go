// Package testutil provides shared test helpers: temp workspaces, state
// databases, and an in-memory stand-in for the DevAssist service.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/devassist/companion/internal/scanner"
	"github.com/devassist/companion/internal/state"
)

// TestState creates a temporary SQLite state database that is automatically
// cleaned up.
func TestState(t *testing.T) *state.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "devassist-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := state.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestWorkspace creates a temporary workspace directory with a scanner
// using the default ignore rules.
func TestWorkspace(t *testing.T) (string, *scanner.FS) {
	t.Helper()
	dir := t.TempDir()
	scan, err := scanner.NewFS(dir, []string{".git", ".devassist", "target"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return dir, scan
}

// WriteFile writes a workspace file, creating parent directories.
func WriteFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeFile is one stored file in the fake service.
type fakeFile struct {
	Content []byte
	Hash    string
}

// FakeRemote is an in-memory double of the DevAssist file API. It speaks the
// same HTTP+JSON contract as the real service and enforces Bearer auth.
type FakeRemote struct {
	mu     sync.Mutex
	files  map[string]fakeFile
	apiKey string
}

// NewFakeRemote creates a FakeRemote that accepts the given API key.
func NewFakeRemote(apiKey string) *FakeRemote {
	return &FakeRemote{files: make(map[string]fakeFile), apiKey: apiKey}
}

// Hash returns the stored hash for name, or empty string when absent.
func (f *FakeRemote) Hash(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[name].Hash
}

// Content returns the stored content for name, or nil when absent.
func (f *FakeRemote) Content(name string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[name].Content
}

// Names returns the set of stored file names.
func (f *FakeRemote) Names() map[string]struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]struct{}, len(f.files))
	for name := range f.files {
		out[name] = struct{}{}
	}
	return out
}

// Seed stores a file directly, bypassing the HTTP surface.
func (f *FakeRemote) Seed(name string, content []byte, hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = fakeFile{Content: content, Hash: hash}
}

// Handler returns the chi router implementing the fake service.
func (f *FakeRemote) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(f.auth)
	r.Get("/v1/projects/{project}/files", f.list)
	r.Put("/v1/projects/{project}/files/*", f.put)
	r.Delete("/v1/projects/{project}/files/*", f.delete)
	return r
}

func (f *FakeRemote) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != f.apiKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// fileName extracts the file name from the wildcard URL segment.
func fileName(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func (f *FakeRemote) list(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	type entry struct {
		Name string `json:"name"`
		Hash string `json:"hash"`
	}
	files := make([]entry, 0, len(f.files))
	for name, ff := range f.files {
		files = append(files, entry{Name: name, Hash: ff.Hash})
	}
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

func (f *FakeRemote) put(w http.ResponseWriter, r *http.Request) {
	name := fileName(r)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	var body struct {
		Content []byte `json:"content"`
		Hash    string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	_, existed := f.files[name]
	f.files[name] = fakeFile{Content: body.Content, Hash: body.Hash}
	f.mu.Unlock()

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]string{"name": name})
}

func (f *FakeRemote) delete(w http.ResponseWriter, r *http.Request) {
	name := fileName(r)

	f.mu.Lock()
	_, existed := f.files[name]
	delete(f.files, name)
	f.mu.Unlock()

	if !existed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
