package clientstate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Items []string `json:"items"`
}

func TestFileStorageSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage returned error: %v", err)
	}

	if err := SaveSnapshot(fs, CartKey, 0, sample{Items: []string{"a", "b"}}); err != nil {
		t.Fatalf("SaveSnapshot returned error: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "cart-storage.json"))
	if err != nil {
		t.Fatalf("expected snapshot file: %v", err)
	}
	if !strings.Contains(string(raw), `"state":{"items":["a","b"]}`) {
		t.Fatalf("unexpected snapshot body: %s", raw)
	}

	var loaded sample
	ok, err := LoadSnapshot(fs, CartKey, &loaded)
	if err != nil || !ok {
		t.Fatalf("LoadSnapshot failed: ok=%v err=%v", ok, err)
	}
	if len(loaded.Items) != 2 || loaded.Items[1] != "b" {
		t.Fatalf("unexpected loaded state: %+v", loaded)
	}

	if err := fs.Remove(CartKey); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	ok, err = LoadSnapshot(fs, CartKey, &loaded)
	if err != nil || ok {
		t.Fatalf("expected missing key after remove: ok=%v err=%v", ok, err)
	}
}

func TestFileStorageRejectsPathKeys(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage returned error: %v", err)
	}
	if err := fs.Save("../escape", []byte("{}")); err == nil {
		t.Fatal("expected invalid key error")
	}
}

func TestMemoryStorageCopiesData(t *testing.T) {
	m := NewMemoryStorage()
	data := []byte("abc")
	_ = m.Save("k", data)
	data[0] = 'z'

	got, ok, _ := m.Load("k")
	if !ok || string(got) != "abc" {
		t.Fatalf("expected stored copy, got %q", got)
	}
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	m := NewMemoryStorage()
	_ = m.Save(LanguageKey, []byte("{"))
	var s sample
	if _, err := LoadSnapshot(m, LanguageKey, &s); err == nil {
		t.Fatal("expected decode error")
	}
}
