package model

import "time"

// CacheVersion is the schema version for per-workspace cache records.
const CacheVersion = 1

// CacheKind distinguishes what a cached name→ID mapping refers to.
type CacheKind string

const (
	CacheKindUser    CacheKind = "user"
	CacheKindChannel CacheKind = "channel"
)

// CacheEntry maps a human identifier to a platform ID.
// Entries never age out on their own; they are evicted only when a lookup
// through them fails with a not-found from the remote side.
type CacheEntry struct {
	// ID is the platform ID (U..., C..., D...)
	ID string `json:"id"`

	// VerifiedAt is when the mapping was last confirmed against the live API
	VerifiedAt time.Time `json:"verified_at"`
}

// Identity is the workspace identity from auth.test.
type Identity struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	URL      string `json:"url"`
}

// WorkspaceCache is the per-workspace cache record. One record is owned by
// exactly one workspace and is flushed to the store on every mutation.
type WorkspaceCache struct {
	// Version is the schema version (CacheVersion)
	Version int `json:"version"`

	// Workspace is the owning workspace name
	Workspace string `json:"workspace"`

	// Identity is the cached auth.test result
	Identity *Identity `json:"identity,omitempty"`

	// SelfDMChannel is the subject's own DM channel ID
	SelfDMChannel string `json:"self_dm_channel,omitempty"`

	// Users maps usernames to cached user IDs
	Users map[string]CacheEntry `json:"users,omitempty"`

	// Channels maps channel names to cached channel IDs
	Channels map[string]CacheEntry `json:"channels,omitempty"`

	// FrequentContacts counts lookups per username, most-queried first
	FrequentContacts map[string]int `json:"frequent_contacts,omitempty"`

	// DirectoryUpdatedAt is when the bulk user directory was last refreshed.
	// The directory is considered stale after CacheStore's configured age and
	// is refreshed proactively rather than trusted.
	DirectoryUpdatedAt time.Time `json:"directory_updated_at,omitzero"`

	// UpdatedAt is when any part of the record last changed
	UpdatedAt time.Time `json:"updated_at"`
}
