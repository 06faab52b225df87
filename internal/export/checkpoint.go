// Package export implements the resumable three-phase export pipeline:
// search for every subject message in a date range, fetch every referenced
// thread exactly once, and write a consistent archive. Progress is persisted
// after every unit of remote work so an interrupted run resumes without
// re-doing completed work.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/encoding"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/params"
	"github.com/google/uuid"
)

// DateFormat is the invocation date format for --from/--to.
const DateFormat = "2006-01-02"

// CheckpointPath returns the checkpoint file location for a workspace.
func CheckpointPath(workspace string) string {
	return filepath.Join(params.AppdataDir, "checkpoints", workspace+".json")
}

// LoadCheckpoint reads a checkpoint file. Returns nil, nil when no checkpoint
// exists. Files with an unknown schema version are rejected, never coerced.
func LoadCheckpoint(path string) (*model.Checkpoint, error) {
	cp, err := encoding.LoadJSON[model.Checkpoint](path)
	if err != nil || cp == nil {
		return nil, err
	}

	if cp.Version != model.CheckpointVersion {
		return nil, fmt.Errorf("unsupported checkpoint version %d in %s (want %d)",
			cp.Version, path, model.CheckpointVersion)
	}

	return cp, nil
}

// SaveCheckpoint persists a checkpoint atomically: the new content is written
// to a temporary file and renamed over the prior one, so a crash mid-write
// cannot corrupt the on-disk record.
func SaveCheckpoint(cp *model.Checkpoint, path string) error {
	cp.UpdatedAt = time.Now()

	return encoding.SaveJSON(path, cp)
}

// RetireCheckpoint removes the checkpoint after a successful write phase.
// A missing file is not an error.
func RetireCheckpoint(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

// ValidateDateRange parses and orders the export window.
func ValidateDateRange(from, to string) (time.Time, time.Time, error) {
	fromT, err := time.Parse(DateFormat, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q: %w", from, err)
	}

	toT, err := time.Parse(DateFormat, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q: %w", to, err)
	}

	if fromT.After(toT) {
		return time.Time{}, time.Time{}, &core.InvalidDateRangeError{From: from, To: to}
	}

	return fromT, toT, nil
}

// SearchQuery builds the search-phase query for a subject and inclusive
// date range. Slack's before: modifier is exclusive, so the upper bound is
// the day after dateTo.
func SearchQuery(subjectID string, from, to time.Time) string {
	return fmt.Sprintf("from:<@%s> after:%s before:%s",
		subjectID,
		from.Format(DateFormat),
		to.AddDate(0, 0, 1).Format(DateFormat),
	)
}

// NewCheckpointOptions collects the inputs for a fresh export run.
type NewCheckpointOptions struct {
	Workspace   string
	Subject     string
	SubjectName string
	DateFrom    string
	DateTo      string
	OutputPath  string
	PageSize    int
}

// NewCheckpoint validates the date range and creates the initial checkpoint
// for a run, positioned at the first search page.
func NewCheckpoint(opts NewCheckpointOptions) (*model.Checkpoint, error) {
	fromT, toT, err := ValidateDateRange(opts.DateFrom, opts.DateTo)
	if err != nil {
		return nil, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	now := time.Now()

	return &model.Checkpoint{
		Version:     model.CheckpointVersion,
		RunID:       uuid.New().String(),
		Workspace:   opts.Workspace,
		Subject:     opts.Subject,
		SubjectName: opts.SubjectName,
		DateFrom:    opts.DateFrom,
		DateTo:      opts.DateTo,
		OutputPath:  opts.OutputPath,
		Phase:       model.PhaseSearch,
		Search: model.SearchState{
			Query:    SearchQuery(opts.Subject, fromT, toT),
			NextPage: 1,
			PageSize: pageSize,
		},
		FetchedThreads: make(map[string]bool),
		Channels:       make(map[string]model.ChannelInfo),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
