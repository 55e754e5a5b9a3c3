package cache

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(zap.NewNop(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	key := Key("http://server/thumb/1")
	if err := store.Put(key, []byte("blob")); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, ok, err := store.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || !bytes.Equal(data, []byte("blob")) {
		t.Fatalf("expected stored blob, got ok=%v data=%q", ok, data)
	}
}

func TestGetMiss(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get(Key("http://server/missing"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatalf("expected miss")
	}
}

func TestPutDuplicateExistingWins(t *testing.T) {
	store := openTestStore(t)

	key := Key("http://server/thumb/dup")
	if err := store.Put(key, []byte("first")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(key, []byte("second")); err != nil {
		t.Fatalf("duplicate put should be swallowed: %v", err)
	}

	data, ok, _ := store.Get(key)
	if !ok || string(data) != "first" {
		t.Fatalf("expected first write to win, got %q", data)
	}
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	key := Key("http://server/thumb/2")
	_ = store.Put(key, []byte("blob"))
	if err := store.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := store.Get(key); ok {
		t.Fatalf("expected deletion")
	}
	if err := store.Delete(key); err != nil {
		t.Fatalf("deleting a missing key should not error: %v", err)
	}
}

func TestTrimEvictsLeastRecentlyUsed(t *testing.T) {
	store := openTestStore(t)

	keys := []string{Key("u1"), Key("u2"), Key("u3")}
	for _, key := range keys {
		if err := store.Put(key, []byte("x")); err != nil {
			t.Fatalf("put: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	// Touch the oldest entry so it becomes the most recent.
	if _, ok, _ := store.Get(keys[0]); !ok {
		t.Fatalf("expected hit")
	}

	if err := store.Trim(2); err != nil {
		t.Fatalf("trim: %v", err)
	}
	n, err := store.Len()
	if err != nil {
		t.Fatalf("len: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 entries after trim, got %d", n)
	}

	if _, ok, _ := store.Get(keys[0]); !ok {
		t.Fatalf("recently accessed entry should survive trim")
	}
	if _, ok, _ := store.Get(keys[1]); ok {
		t.Fatalf("least recently used entry should be evicted")
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("http://server/a") != Key("http://server/a") {
		t.Fatalf("expected deterministic keys")
	}
	if Key("http://server/a") == Key("http://server/b") {
		t.Fatalf("expected distinct keys for distinct urls")
	}
}
