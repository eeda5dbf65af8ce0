package store

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	if _, err := st.Get(ctx, NamespaceSets, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key err = %v, want ErrNotFound", err)
	}

	if err := st.Put(ctx, NamespaceSets, "k", []byte(`{"flashcards":[]}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := st.Get(ctx, NamespaceSets, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"flashcards":[]}`)) {
		t.Errorf("got %q", got)
	}

	// Upsert replaces in place.
	if err := st.Put(ctx, NamespaceSets, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err = st.Get(ctx, NamespaceSets, "k")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("got %q, want v2", got)
	}

	if err := st.Delete(ctx, NamespaceSets, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := st.Get(ctx, NamespaceSets, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted key err = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreExpiry(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	if err := st.Put(ctx, NamespaceSessions, "gone", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, NamespaceSessions, "kept", []byte("v"), time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := st.Get(ctx, NamespaceSessions, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired key err = %v, want ErrNotFound", err)
	}
	if _, err := st.Get(ctx, NamespaceSessions, "kept"); err != nil {
		t.Errorf("unexpired key err = %v", err)
	}
}

func TestSQLitePurgeExpired(t *testing.T) {
	ctx := context.Background()
	st := openTestSQLite(t)

	if err := st.Put(ctx, NamespaceSessions, "a", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, NamespaceSessions, "b", []byte("v"), time.Millisecond); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := st.Put(ctx, NamespaceSets, "keep", []byte("v"), 0); err != nil {
		t.Fatalf("put: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	purged, err := st.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		t.Errorf("purged %d entries, want 2", purged)
	}
	if _, err := st.Get(ctx, NamespaceSets, "keep"); err != nil {
		t.Errorf("no-ttl entry err = %v", err)
	}
}
