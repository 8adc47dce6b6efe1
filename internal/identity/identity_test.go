package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSourceTrimsNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address")
	if err := os.WriteFile(path, []byte("b8:27:eb:01:02:03\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	id, err := FileSource{Path: path}.DeviceID()
	if err != nil {
		t.Fatalf("DeviceID: %v", err)
	}
	if id != "b8:27:eb:01:02:03" {
		t.Errorf("got %q", id)
	}
}

func TestFileSourceMissing(t *testing.T) {
	if _, err := (FileSource{Path: filepath.Join(t.TempDir(), "nope")}).DeviceID(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSourceEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address")
	os.WriteFile(path, []byte("\n"), 0o644)

	if _, err := (FileSource{Path: path}).DeviceID(); err == nil {
		t.Error("expected error for empty identifier")
	}
}

func TestStatic(t *testing.T) {
	id, err := Static("dev-1").DeviceID()
	if err != nil || id != "dev-1" {
		t.Errorf("got %q, %v", id, err)
	}
}
