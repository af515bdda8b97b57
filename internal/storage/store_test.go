package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/api")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ref, err := store.Save(strings.NewReader("wagon manifest bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ref.Size != int64(len("wagon manifest bytes")) {
		t.Fatalf("size = %d", ref.Size)
	}
	if ref.Location != "/api/files/"+ref.ID.String() {
		t.Fatalf("location = %q", ref.Location)
	}

	f, err := store.Open(ref.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "wagon manifest bytes" {
		t.Fatalf("content = %q", data)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	ref, err := store.Save(strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(ref.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove(ref.ID); err != nil {
		t.Fatalf("second Remove must be a no-op, got %v", err)
	}
	if err := store.Remove(uuid.New()); err != nil {
		t.Fatalf("Remove of unknown id must be a no-op, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	store, err := NewStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.Open(uuid.New()); err == nil {
		t.Fatal("opening an unknown id must fail")
	}
}

func TestNewStoreRequiresDir(t *testing.T) {
	if _, err := NewStore("", "/api"); err == nil {
		t.Fatal("empty dir must fail")
	}
}
