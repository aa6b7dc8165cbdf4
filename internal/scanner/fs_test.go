package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devassist/companion/internal/checksum"
)

func testFS(t *testing.T, ignore []string, maxSize int64) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	f, err := NewFS(dir, ignore, maxSize)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, f
}

func write(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewFS_MissingRoot(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "nope"), nil, 0); err == nil {
		t.Fatal("missing root should fail")
	}
}

func TestNewFS_RootIsFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "f.txt", []byte("x"))
	if _, err := NewFS(filepath.Join(dir, "f.txt"), nil, 0); err == nil {
		t.Fatal("file root should fail")
	}
}

func TestList_RelativeSlashPaths(t *testing.T) {
	dir, f := testFS(t, nil, 0)
	write(t, dir, "main.go", []byte("package main"))
	write(t, dir, "pkg/util/util.go", []byte("package util"))

	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("scanned %d files, want 2", len(metas))
	}

	got := make(map[string]string, len(metas))
	for _, m := range metas {
		got[m.Path] = m.Checksum
	}
	if _, ok := got["pkg/util/util.go"]; !ok {
		t.Errorf("paths = %v, want forward-slash relative paths", got)
	}
	if got["main.go"] != checksum.Sum([]byte("package main")) {
		t.Errorf("checksum mismatch for main.go")
	}
}

func TestList_IgnoresDirectoriesAndFiles(t *testing.T) {
	dir, f := testFS(t, []string{"target", ".git", ".env"}, 0)
	write(t, dir, "src/lib.rs", []byte("fn main() {}"))
	write(t, dir, "target/debug/out.bin", []byte("binary"))
	write(t, dir, ".git/HEAD", []byte("ref: refs/heads/main"))
	write(t, dir, ".env", []byte("DEVASSIST_API_KEY=secret"))

	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 || metas[0].Path != "src/lib.rs" {
		t.Fatalf("metas = %+v, want only src/lib.rs", metas)
	}
}

func TestList_SkipsOversizedFiles(t *testing.T) {
	dir, f := testFS(t, nil, 16)
	write(t, dir, "small.txt", []byte("ok"))
	write(t, dir, "big.txt", make([]byte, 64))

	metas, err := f.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 1 || metas[0].Path != "small.txt" {
		t.Fatalf("metas = %+v, want only small.txt", metas)
	}
}

func TestRead_Roundtrip(t *testing.T) {
	dir, f := testFS(t, nil, 0)
	write(t, dir, "a/b.txt", []byte("content"))

	data, err := f.Read("a/b.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "content" {
		t.Errorf("data = %q", data)
	}
}

func TestRead_RejectsTraversal(t *testing.T) {
	_, f := testFS(t, nil, 0)
	if _, err := f.Read("../outside.txt"); err == nil {
		t.Fatal("traversal should be rejected")
	}
	if _, err := f.Read("/etc/passwd"); err == nil {
		t.Fatal("absolute path should be rejected")
	}
	if _, err := f.Read(""); err == nil {
		t.Fatal("empty path should be rejected")
	}
}
