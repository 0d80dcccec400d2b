package store

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	// Should have run migration v1
	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/tripguide.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(context.Background(), "k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: should succeed, not re-migrate, and keep data
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, ok, err := s2.Get(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("expected stored blob after reopen, ok=%v err=%v", ok, err)
	}
	if string(v) != `{"a":1}` {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	// Running migrate again should be a no-op
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Blobs
// ============================================================

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	v, ok, err := s.Get(context.Background(), "intentions")
	if err != nil {
		t.Fatal(err)
	}
	if ok || v != nil {
		t.Fatalf("expected absent blob, got %q", v)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "trip_history", []byte(`[1]`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "trip_history", []byte(`[2,1]`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.Get(ctx, "trip_history")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != `[2,1]` {
		t.Fatalf("expected whole-blob overwrite, got %q", v)
	}
}

func TestListBlobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.Set(ctx, "trip_sitters", []byte(`[]`))
	s.Set(ctx, "intentions", []byte(`[{"id":"x"}]`))

	blobs, err := s.ListBlobs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 2 {
		t.Fatalf("expected 2 blobs, got %d", len(blobs))
	}
	// Should be sorted by key
	if blobs[0].Key != "intentions" || blobs[1].Key != "trip_sitters" {
		t.Fatalf("expected sorted by key: got %s, %s", blobs[0].Key, blobs[1].Key)
	}
	if blobs[0].Size != len(`[{"id":"x"}]`) {
		t.Fatalf("unexpected size %d", blobs[0].Size)
	}
	if blobs[0].UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt should be set")
	}
}

func TestListBlobsEmpty(t *testing.T) {
	s := newTestStore(t)
	blobs, err := s.ListBlobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if blobs != nil {
		t.Fatalf("expected nil slice, got %d items", len(blobs))
	}
}

// ============================================================
// Badger
// ============================================================

func TestBadgerInMemory(t *testing.T) {
	b, err := NewBadger("")
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	ctx := context.Background()

	if _, ok, err := b.Get(ctx, "trip_draft"); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := b.Set(ctx, "trip_draft", []byte(`{"id":"t1"}`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := b.Get(ctx, "trip_draft")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != `{"id":"t1"}` {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir() + "/badger"
	ctx := context.Background()

	b, err := NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Set(ctx, "intentions", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	b.Close()

	b2, err := NewBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()
	if _, ok, _ := b2.Get(ctx, "intentions"); !ok {
		t.Fatal("expected key to survive reopen")
	}
}
