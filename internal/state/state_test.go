package state

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "devassist-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM files`).Scan(&count); err != nil {
		t.Fatalf("files table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM runs`).Scan(&count); err != nil {
		t.Fatalf("runs table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := FileRow{Path: "src/main.go", Checksum: "abc123", Size: 42, SyncedAt: time.Now().UTC()}
	if err := db.UpsertFile(row); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	cs, err := db.GetChecksum("src/main.go")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	_ = db.UpsertFile(FileRow{Path: "up.go", Checksum: "1", Size: 1, SyncedAt: now})
	_ = db.UpsertFile(FileRow{Path: "up.go", Checksum: "2", Size: 2, SyncedAt: now})

	cs, _ := db.GetChecksum("up.go")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 row after upsert, got %d", len(all))
	}
}

func TestDeleteFile(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertFile(FileRow{Path: "del.go", Checksum: "x", SyncedAt: time.Now().UTC()})

	if err := db.DeleteFile("del.go"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	cs, _ := db.GetChecksum("del.go")
	if cs != "" {
		t.Errorf("deleted file still has checksum %q", cs)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestAllChecksums(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC()
	_ = db.UpsertFile(FileRow{Path: "a.go", Checksum: "1", SyncedAt: now})
	_ = db.UpsertFile(FileRow{Path: "b.go", Checksum: "2", SyncedAt: now})

	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 || all["a.go"] != "1" || all["b.go"] != "2" {
		t.Errorf("all = %v", all)
	}
}

func TestRecordAndLastRun(t *testing.T) {
	db := testDB(t)

	last, err := db.LastRun()
	if err != nil {
		t.Fatalf("LastRun on empty db: %v", err)
	}
	if last != nil {
		t.Fatalf("expected nil run, got %+v", last)
	}

	started := time.Now().UTC().Truncate(time.Second)
	_ = db.RecordRun(RunRow{StartedAt: started, FinishedAt: started.Add(time.Second), Scanned: 10, Uploaded: 3, Deleted: 1, Failed: 0})
	_ = db.RecordRun(RunRow{StartedAt: started.Add(time.Minute), FinishedAt: started.Add(61 * time.Second), Scanned: 10, Uploaded: 0, Deleted: 0, Failed: 2})

	last, err = db.LastRun()
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.Failed != 2 || last.Scanned != 10 {
		t.Errorf("last = %+v, want the second run", last)
	}
}
