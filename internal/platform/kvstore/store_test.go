package kvstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var errBroken = errors.New("backend broken")

type cartPayload struct {
	Items []string `json:"items"`
	Total int64    `json:"total"`
}

func TestStoreRoundTrip(t *testing.T) {
	store := New(NewMemoryBackend(), nil)

	in := cartPayload{Items: []string{"prod_1", "prod_2"}, Total: 2599}
	if ok := Write(store, "cart", in); !ok {
		t.Fatalf("expected write to succeed")
	}

	out := Read(store, "cart", cartPayload{})
	if len(out.Items) != 2 || out.Total != 2599 {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestStoreReadReturnsDefaultForMissingKey(t *testing.T) {
	store := New(NewMemoryBackend(), nil)

	def := cartPayload{Total: 42}
	out := Read(store, "missing", def)
	if out.Total != 42 {
		t.Fatalf("expected default payload, got %+v", out)
	}
}

func TestStoreReadReturnsDefaultForCorruptPayload(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.Set("cart", []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}

	store := New(backend, nil)
	out := Read(store, "cart", cartPayload{Total: 7})
	if out.Total != 7 {
		t.Fatalf("expected default on corrupt payload, got %+v", out)
	}
}

func TestStoreHasAndRemove(t *testing.T) {
	store := New(NewMemoryBackend(), nil)

	Write(store, "user", "1")
	if !store.Has("user") {
		t.Fatalf("expected key to exist")
	}
	if !store.Remove("user") {
		t.Fatalf("expected remove to succeed")
	}
	if store.Has("user") {
		t.Fatalf("expected key to be gone")
	}
}

type brokenBackend struct{}

func (brokenBackend) Get(string) ([]byte, bool, error) { return nil, false, errBroken }
func (brokenBackend) Set(string, []byte) error         { return errBroken }
func (brokenBackend) Delete(string) error              { return errBroken }
func (brokenBackend) Clear() error                     { return errBroken }

func TestStoreProbe(t *testing.T) {
	if !New(NewMemoryBackend(), nil).Probe() {
		t.Fatalf("expected probe to pass on a writable backend")
	}
	if New(brokenBackend{}, nil).Probe() {
		t.Fatalf("expected probe to fail on a broken backend")
	}
	// The probe key leaves no residue.
	store := New(NewMemoryBackend(), nil)
	store.Probe()
	if store.Has(probeKey) {
		t.Fatalf("probe key left behind")
	}
}

func TestStoreClear(t *testing.T) {
	store := New(NewMemoryBackend(), nil)

	Write(store, "cart", cartPayload{Total: 1})
	Write(store, "user_1_orders", []string{"ord_1"})
	if !store.Clear() {
		t.Fatalf("expected clear to succeed")
	}
	if store.Has("cart") || store.Has("user_1_orders") {
		t.Fatalf("expected all keys removed")
	}
}

func TestFileBackendPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	store := New(backend, nil)
	Write(store, "user_1_orders", []string{"ord_1", "ord_2"})

	reopened, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("reopen backend: %v", err)
	}
	out := Read(New(reopened, nil), "user_1_orders", []string(nil))
	if len(out) != 2 || out[0] != "ord_1" {
		t.Fatalf("unexpected payload after reopen: %v", out)
	}
}

func TestFileBackendEscapesKeys(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := backend.Set("user/../evil", []byte(`"x"`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single file, got %d", len(entries))
	}
	if filepath.Dir(filepath.Join(dir, entries[0].Name())) != dir {
		t.Fatalf("file escaped storage directory: %s", entries[0].Name())
	}
}

func TestFileBackendClearLeavesDirectory(t *testing.T) {
	dir := t.TempDir()

	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := backend.Set("cart", []byte(`{}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := backend.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}

	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected directory to remain: %v", err)
	}
	if _, ok, _ := backend.Get("cart"); ok {
		t.Fatalf("expected cart to be removed")
	}
}
