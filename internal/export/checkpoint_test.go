package export

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/encoding"
	"github.com/HartreeWorks/slackpull/internal/model"
)

func TestSearchQuery(t *testing.T) {
	from, _ := time.Parse(DateFormat, "2026-01-01")
	to, _ := time.Parse(DateFormat, "2026-01-31")

	// before: is exclusive upstream, so the bound is the day after dateTo
	want := "from:<@U111> after:2026-01-01 before:2026-02-01"
	if got := SearchQuery("U111", from, to); got != want {
		t.Errorf("SearchQuery() = %q, want %q", got, want)
	}
}

func TestValidateDateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"valid", "2026-01-01", "2026-01-31", false},
		{"single day", "2026-01-01", "2026-01-01", false},
		{"inverted", "2026-02-01", "2026-01-01", true},
		{"garbage from", "January 1", "2026-01-31", true},
		{"garbage to", "2026-01-01", "31/01/2026", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ValidateDateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateRange(%q, %q) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDateRange_InvertedErrorType(t *testing.T) {
	_, _, err := ValidateDateRange("2026-02-01", "2026-01-01")

	var invalid *core.InvalidDateRangeError
	if !errors.As(err, &invalid) {
		t.Errorf("error = %v, want InvalidDateRangeError", err)
	}
}

func TestNewCheckpoint(t *testing.T) {
	cp, err := NewCheckpoint(NewCheckpointOptions{
		Workspace:  "acme",
		Subject:    "U111",
		DateFrom:   "2026-01-01",
		DateTo:     "2026-01-31",
		OutputPath: "/tmp/archive.json",
	})
	if err != nil {
		t.Fatalf("NewCheckpoint() error = %v", err)
	}

	if cp.Version != model.CheckpointVersion {
		t.Errorf("Version = %d", cp.Version)
	}

	if cp.RunID == "" {
		t.Error("RunID is empty")
	}

	if cp.Phase != model.PhaseSearch {
		t.Errorf("Phase = %q, want search", cp.Phase)
	}

	if cp.Search.NextPage != 1 || cp.Search.PageSize != 100 {
		t.Errorf("Search = %+v, want page 1 and default page size", cp.Search)
	}

	if cp.Search.Query != "from:<@U111> after:2026-01-01 before:2026-02-01" {
		t.Errorf("Query = %q", cp.Search.Query)
	}

	if cp.FetchedThreads == nil || cp.Channels == nil {
		t.Error("maps not initialized")
	}
}

func TestNewCheckpoint_RejectsInvertedRange(t *testing.T) {
	_, err := NewCheckpoint(NewCheckpointOptions{
		Subject:  "U111",
		DateFrom: "2026-02-01",
		DateTo:   "2026-01-01",
	})
	if err == nil {
		t.Error("NewCheckpoint() error = nil, want date range error")
	}
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	cp, err := LoadCheckpoint(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}

	if cp != nil {
		t.Errorf("LoadCheckpoint() = %+v, want nil for a missing file", cp)
	}
}

func TestSaveLoadCheckpoint_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.json")

	cp, err := NewCheckpoint(NewCheckpointOptions{
		Workspace: "acme",
		Subject:   "U111",
		DateFrom:  "2026-01-01",
		DateTo:    "2026-01-31",
	})
	if err != nil {
		t.Fatal(err)
	}

	cp.Messages = append(cp.Messages, model.Message{TS: "1.0", ChannelID: "C1", ThreadTS: "1.0", IsSubject: true})
	cp.FetchedThreads["C1:1.0"] = true

	if err := SaveCheckpoint(cp, path); err != nil {
		t.Fatalf("SaveCheckpoint() error = %v", err)
	}

	got, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint() error = %v", err)
	}

	if got.RunID != cp.RunID || got.Search.Query != cp.Search.Query {
		t.Errorf("round trip = %+v, want %+v", got, cp)
	}

	if len(got.Messages) != 1 || !got.FetchedThreads["C1:1.0"] {
		t.Errorf("progress not preserved: %+v", got)
	}
}

func TestLoadCheckpoint_RejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.json")

	if err := encoding.SaveJSON(path, map[string]any{"version": 99, "workspace": "acme"}); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCheckpoint(path); err == nil {
		t.Error("LoadCheckpoint() error = nil, want version rejection")
	}
}

func TestRetireCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme.json")

	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := RetireCheckpoint(path); err != nil {
		t.Fatalf("RetireCheckpoint() error = %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("checkpoint still on disk after retire")
	}

	// Retiring an already-missing checkpoint is fine
	if err := RetireCheckpoint(path); err != nil {
		t.Errorf("RetireCheckpoint(missing) error = %v", err)
	}
}
