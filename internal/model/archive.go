package model

import "time"

// ArchiveVersion is the schema version stamped into archive metadata.
const ArchiveVersion = 1

// ArchiveStats summarizes an archive.
type ArchiveStats struct {
	TotalMessages      int `json:"total_messages"`
	TotalThreads       int `json:"total_threads"`
	StandaloneMessages int `json:"standalone_messages"`
	ChannelsCount      int `json:"channels_count"`
}

// ArchiveMetadata describes the export run that produced an archive.
type ArchiveMetadata struct {
	Version    int          `json:"version"`
	RunID      string       `json:"run_id"`
	Workspace  string       `json:"workspace"`
	Subject    string       `json:"subject"`
	DateRange  DateRange    `json:"date_range"`
	ExportedAt time.Time    `json:"exported_at"`
	Stats      ArchiveStats `json:"stats"`
}

// DateRange is the inclusive export window in "2006-01-02" form.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ArchiveThread is one thread entry in the final archive.
type ArchiveThread struct {
	ThreadID         string           `json:"thread_id"`
	ChannelID        string           `json:"channel_id"`
	UserMessageCount int              `json:"user_message_count"`
	TotalMessages    int              `json:"total_message_count"`
	Error            string           `json:"error,omitempty"`
	Messages         []ArchiveMessage `json:"messages"`
}

// ArchiveMessage is one message entry in the final archive.
type ArchiveMessage struct {
	TS            string `json:"ts"`
	ChannelID     string `json:"channel_id,omitempty"`
	User          string `json:"user"`
	Text          string `json:"text"`
	IsUserMessage bool   `json:"is_user_message"`
}

// Archive is the complete export artifact. Immutable once written.
type Archive struct {
	Metadata           ArchiveMetadata        `json:"metadata"`
	Channels           map[string]ChannelInfo `json:"channels"`
	Threads            []ArchiveThread        `json:"threads"`
	StandaloneMessages []ArchiveMessage       `json:"standalone_messages"`
}
