package storage

import (
	"path/filepath"
	"testing"

	"github.com/syndtr/goleveldb/leveldb"
)

func TestPersistenceStore_BasicOperations(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	key := []byte("test-key")
	value := []byte("test-value")
	if err := ps.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, found, err := ps.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	_, found, err = ps.Get([]byte("non-existent"))
	if err != nil {
		t.Fatalf("Get non-existent failed: %v", err)
	}
	if found {
		t.Error("Expected key not to be found")
	}

	if err := ps.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if ok, _ := ps.Has(key); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestPersistenceStore_PrefixAndBatch(t *testing.T) {
	ps, err := NewMemoryPersistenceStore()
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer ps.Close()

	batch := new(leveldb.Batch)
	batch.Put([]byte("a1"), []byte("x"))
	batch.Put([]byte("a2"), []byte("y"))
	batch.Put([]byte("b1"), []byte("z"))
	if err := ps.Write(batch); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	pairs, err := ps.GetWithPrefix([]byte("a"))
	if err != nil {
		t.Fatalf("GetWithPrefix failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("GetWithPrefix returned %d pairs, want 2", len(pairs))
	}
	if string(pairs[0][0]) != "a1" || string(pairs[1][1]) != "y" {
		t.Errorf("unexpected pairs %q", pairs)
	}
}

func TestPersistenceStore_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	ps, err := NewPersistenceStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := ps.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := ps.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ps, err = NewPersistenceStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer ps.Close()
	got, found, err := ps.Get([]byte("k"))
	if err != nil || !found || string(got) != "v" {
		t.Fatalf("after reopen got %q found=%v err=%v", got, found, err)
	}
}
