package model

import "time"

// CheckpointVersion is the on-disk schema version for checkpoint files.
// Loaders reject files with any other version rather than coercing them.
const CheckpointVersion = 1

// Phase is the export pipeline phase recorded in a checkpoint.
type Phase string

const (
	PhaseSearch  Phase = "search"
	PhaseThreads Phase = "threads"
	PhaseWrite   Phase = "write"
	PhaseDone    Phase = "done"
)

// SearchState is the pagination position of the search phase.
type SearchState struct {
	// Query is the literal search query, fixed for the lifetime of the run
	Query string `json:"query"`

	// NextPage is the next search page to request (1-based)
	NextPage int `json:"next_page"`

	// PageSize is the per-page match count the run was started with
	PageSize int `json:"page_size"`
}

// Checkpoint is the durable progress record for one export run.
// It is written atomically after every completed unit of remote work and is
// self-sufficient to resume with no data loss and no duplicate remote calls
// for completed units.
type Checkpoint struct {
	// Version is the schema version (CheckpointVersion)
	Version int `json:"version"`

	// RunID uniquely identifies this export run
	RunID string `json:"run_id"`

	// Workspace is the workspace name the run belongs to
	Workspace string `json:"workspace"`

	// Subject is the Slack user ID whose messages are being exported
	Subject string `json:"subject"`

	// SubjectName is the subject's username, for the archive metadata
	SubjectName string `json:"subject_name,omitempty"`

	// DateFrom and DateTo bound the export range (inclusive), "2006-01-02"
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`

	// OutputPath is where the archive will be written
	OutputPath string `json:"output_path"`

	// Phase is the current pipeline phase
	Phase Phase `json:"phase"`

	// Search is the search-phase pagination state
	Search SearchState `json:"search"`

	// Messages are all subject messages collected by the search phase
	Messages []Message `json:"messages"`

	// FetchedThreads is the set of thread keys already fully fetched,
	// keyed by ThreadKey.String()
	FetchedThreads map[string]bool `json:"fetched_threads"`

	// Threads are the fully fetched threads, in fetch order
	Threads []Thread `json:"threads"`

	// Channels maps channel IDs seen during the run to their info
	Channels map[string]ChannelInfo `json:"channels"`

	// CreatedAt is when the run started
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the checkpoint was last persisted
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingThreadKeys returns the distinct thread keys referenced by collected
// messages that are not yet in the fetched set, in first-reference order.
func (c *Checkpoint) PendingThreadKeys() []ThreadKey {
	var (
		keys []ThreadKey
		seen = make(map[string]bool)
	)

	for _, m := range c.Messages {
		if m.ThreadTS == "" {
			continue
		}

		key := ThreadKey{ChannelID: m.ChannelID, RootTS: m.ThreadTS}
		ks := key.String()

		if seen[ks] || c.FetchedThreads[ks] {
			continue
		}

		seen[ks] = true
		keys = append(keys, key)
	}

	return keys
}

// StandaloneMessages returns collected messages with no thread root.
func (c *Checkpoint) StandaloneMessages() []Message {
	var out []Message

	for _, m := range c.Messages {
		if m.ThreadTS == "" {
			out = append(out, m)
		}
	}

	return out
}
