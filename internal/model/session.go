package model

import "time"

// SessionVersion is the schema version for the session-state record.
const SessionVersion = 1

// SessionState is the host-wide workspace activity record used by workspace
// resolution. It is loaded at start and flushed on every mutation.
type SessionState struct {
	// Version is the schema version (SessionVersion)
	Version int `json:"version"`

	// ActiveWorkspace is the workspace chosen by the most recent resolution
	ActiveWorkspace string `json:"active_workspace,omitempty"`

	// ChannelWorkspaces maps channel IDs to the workspace they were last
	// seen in
	ChannelWorkspaces map[string]string `json:"channel_workspaces,omitempty"`

	// LastActive records the last resolution time per workspace
	LastActive map[string]time.Time `json:"last_active,omitempty"`
}
