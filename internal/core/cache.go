package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/store"
)

// DefaultDirectoryMaxAge is how old the bulk user directory may get before a
// refresh is preferred over trusting it.
const DefaultDirectoryMaxAge = 7 * 24 * time.Hour

// LookupFunc performs a live remote lookup of one human key, returning the
// platform ID.
type LookupFunc func(ctx context.Context) (string, error)

// CacheStore maps human identifiers to platform IDs per workspace. Entries
// are only ever invalidated by a confirmed not-found from the remote side,
// never by age. The one exception is the bulk user directory, which has a
// staleness age.
type CacheStore struct {
	db              *store.Store
	directoryMaxAge time.Duration
	logger          *slog.Logger

	now func() time.Time
}

// CacheStoreOptions configures a CacheStore.
type CacheStoreOptions struct {
	// DirectoryMaxAge overrides the bulk directory staleness age
	DirectoryMaxAge time.Duration

	Logger *slog.Logger

	// Now overrides the clock, for tests
	Now func() time.Time
}

// NewCacheStore creates a cache store over the state database.
func NewCacheStore(db *store.Store, opts CacheStoreOptions) *CacheStore {
	maxAge := opts.DirectoryMaxAge
	if maxAge <= 0 {
		maxAge = DefaultDirectoryMaxAge
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &CacheStore{
		db:              db,
		directoryMaxAge: maxAge,
		logger:          logger,
		now:             now,
	}
}

// Lookup returns the cached platform ID for a human key, if present.
func (c *CacheStore) Lookup(workspace string, kind model.CacheKind, key string) (string, bool, error) {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return "", false, err
	}

	entry, ok := c.entries(cache, kind)[key]
	if !ok {
		return "", false, nil
	}

	return entry.ID, true, nil
}

// Put stores a freshly verified mapping. User lookups also bump the
// frequent-contact counter.
func (c *CacheStore) Put(workspace string, kind model.CacheKind, key, id string) error {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return err
	}

	entry := model.CacheEntry{ID: id, VerifiedAt: c.now()}

	switch kind {
	case model.CacheKindUser:
		if cache.Users == nil {
			cache.Users = make(map[string]model.CacheEntry)
		}

		cache.Users[key] = entry

		if cache.FrequentContacts == nil {
			cache.FrequentContacts = make(map[string]int)
		}

		cache.FrequentContacts[key]++
	case model.CacheKindChannel:
		if cache.Channels == nil {
			cache.Channels = make(map[string]model.CacheEntry)
		}

		cache.Channels[key] = entry
	}

	return c.db.SaveCache(cache)
}

// Evict removes a mapping. Missing entries are not an error.
func (c *CacheStore) Evict(workspace string, kind model.CacheKind, key string) error {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return err
	}

	delete(c.entries(cache, kind), key)

	return c.db.SaveCache(cache)
}

// Resolve returns the platform ID for a human key, consulting the cache first
// and performing a live lookup on a miss. Live results are inserted with a
// fresh verification timestamp.
func (c *CacheStore) Resolve(ctx context.Context, workspace string, kind model.CacheKind, key string, live LookupFunc) (string, error) {
	if id, ok, err := c.Lookup(workspace, kind, key); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}

	id, err := live(ctx)
	if err != nil {
		return "", err
	}

	if err := c.Put(workspace, kind, key, id); err != nil {
		return "", err
	}

	return id, nil
}

// UseResolved resolves a key and runs use with the ID. When use reports
// not-found for a cached ID, the entry is evicted and exactly one live
// retry is attempted before the not-found surfaces to the caller.
func (c *CacheStore) UseResolved(ctx context.Context, workspace string, kind model.CacheKind, key string, live LookupFunc, use func(id string) error) error {
	id, cached, err := c.Lookup(workspace, kind, key)
	if err != nil {
		return err
	}

	if !cached {
		if id, err = live(ctx); err != nil {
			return err
		}

		if err := c.Put(workspace, kind, key, id); err != nil {
			return err
		}

		return use(id)
	}

	err = use(id)

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return err
	}

	// The cached ID is confirmed stale: evict and retry live once
	c.logger.Debug("evicting stale cache entry",
		slog.String("workspace", workspace),
		slog.String("kind", string(kind)),
		slog.String("key", key),
	)

	if err := c.Evict(workspace, kind, key); err != nil {
		return err
	}

	freshID, err := live(ctx)
	if err != nil {
		return err
	}

	if err := c.Put(workspace, kind, key, freshID); err != nil {
		return err
	}

	return use(freshID)
}

// DirectoryFresh reports whether the bulk user directory is recent enough to
// trust.
func (c *CacheStore) DirectoryFresh(workspace string) (bool, error) {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return false, err
	}

	if cache.DirectoryUpdatedAt.IsZero() {
		return false, nil
	}

	return c.now().Sub(cache.DirectoryUpdatedAt) < c.directoryMaxAge, nil
}

// RefreshDirectory replaces the bulk user directory with a fresh
// username→ID snapshot.
func (c *CacheStore) RefreshDirectory(workspace string, users map[string]string) error {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return err
	}

	if cache.Users == nil {
		cache.Users = make(map[string]model.CacheEntry, len(users))
	}

	verifiedAt := c.now()
	for name, id := range users {
		cache.Users[name] = model.CacheEntry{ID: id, VerifiedAt: verifiedAt}
	}

	cache.DirectoryUpdatedAt = verifiedAt

	return c.db.SaveCache(cache)
}

// SaveSelfDM records the subject's own DM channel ID.
func (c *CacheStore) SaveSelfDM(workspace, channelID string) error {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return err
	}

	cache.SelfDMChannel = channelID

	return c.db.SaveCache(cache)
}

// SelfDM returns the subject's own DM channel ID, if known.
func (c *CacheStore) SelfDM(workspace string) (string, error) {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return "", err
	}

	return cache.SelfDMChannel, nil
}

// Identity returns the cached workspace identity, if known.
func (c *CacheStore) Identity(workspace string) (*model.Identity, error) {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return nil, err
	}

	return cache.Identity, nil
}

// SaveIdentity records the auth.test identity for a workspace.
func (c *CacheStore) SaveIdentity(workspace string, identity *model.Identity) error {
	cache, err := c.db.GetCache(workspace)
	if err != nil {
		return err
	}

	cache.Identity = identity

	return c.db.SaveCache(cache)
}

func (c *CacheStore) entries(cache *model.WorkspaceCache, kind model.CacheKind) map[string]model.CacheEntry {
	switch kind {
	case model.CacheKindUser:
		if cache.Users == nil {
			cache.Users = make(map[string]model.CacheEntry)
		}

		return cache.Users
	default:
		if cache.Channels == nil {
			cache.Channels = make(map[string]model.CacheEntry)
		}

		return cache.Channels
	}
}
