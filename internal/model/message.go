package model

import "fmt"

// Message is one exported Slack message.
// The Slack timestamp doubles as the unique message key within a channel.
type Message struct {
	// TS is the Slack timestamp (e.g., "1734567890.123456"), monotonically
	// increasing within a channel
	TS string `json:"ts"`

	// ChannelID is the channel the message was posted in
	ChannelID string `json:"channel_id"`

	// ChannelName is the human channel name, when known
	ChannelName string `json:"channel_name,omitempty"`

	// User is the author's Slack user ID
	User string `json:"user"`

	// Text is the message body
	Text string `json:"text"`

	// ThreadTS is the root timestamp of the thread this message belongs to.
	// Empty for standalone messages.
	ThreadTS string `json:"thread_ts,omitempty"`

	// IsSubject indicates the message was authored by the export subject
	IsSubject bool `json:"is_user_message"`
}

// ThreadKey identifies a thread by channel and root timestamp.
type ThreadKey struct {
	ChannelID string `json:"channel_id"`
	RootTS    string `json:"root_ts"`
}

// String renders the key in "channel:rootTS" form, used as the archive thread ID
// and as the membership key in the checkpoint's fetched set.
func (k ThreadKey) String() string {
	return fmt.Sprintf("%s:%s", k.ChannelID, k.RootTS)
}

// Thread is a root message plus its ordered replies.
type Thread struct {
	// Key identifies the thread
	Key ThreadKey `json:"key"`

	// Messages are all messages in the thread ordered by timestamp,
	// from every participant
	Messages []Message `json:"messages"`

	// SubjectCount is the number of messages authored by the export subject
	SubjectCount int `json:"subject_count"`

	// TotalCount is the total number of messages in the thread
	TotalCount int `json:"total_count"`

	// Error marks a thread that became permanently inaccessible mid-export
	// (channel deleted, access revoked). Empty for successful fetches.
	Error string `json:"error,omitempty"`
}

// ChannelInfo describes a channel referenced by the export.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}
