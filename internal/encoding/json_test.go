package encoding

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestLoadJSON_MissingFile(t *testing.T) {
	got, err := LoadJSON[sample](filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	if got != nil {
		t.Errorf("LoadJSON() = %+v, want nil for a missing file", got)
	}
}

func TestLoadJSON_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadJSON[sample](path); err == nil {
		t.Error("LoadJSON() error = nil, want parse error")
	}
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sample.json")

	want := sample{Name: "general", Count: 42}
	if err := SaveJSON(path, want); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	got, err := LoadJSON[sample](path)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}

	if got == nil || *got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestAtomicWriteFile_OverwritesAndSetsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	if err := AtomicWriteFile(path, []byte("first"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}

	if err := AtomicWriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}

		if info.Mode().Perm() != 0600 {
			t.Errorf("mode = %v, want 0600", info.Mode().Perm())
		}
	}

	// No temp files may survive a completed write
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON[sample]([]byte(`{"name":"x","count":1}`))
	if err != nil {
		t.Fatalf("ParseJSON() error = %v", err)
	}

	if got.Name != "x" || got.Count != 1 {
		t.Errorf("ParseJSON() = %+v", got)
	}
}
