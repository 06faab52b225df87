// Package store persists mutable host-wide state (session record and
// per-workspace caches) in a single bbolt database under the appdata
// directory. One process owns the file at a time.
package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/params"
	"go.etcd.io/bbolt"
)

const (
	boltBucketSession = "session" // key: "state" -> SessionState JSON
	boltBucketCaches  = "caches"  // key: workspace name -> WorkspaceCache JSON

	sessionStateKey = "state"
)

// Store wraps the bbolt database holding session and cache state.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the state database at the given path.
// An empty path uses the default location in the appdata directory.
func Open(path string) (*Store, error) {
	if path == "" {
		path = filepath.Join(params.AppdataDir, "state.bolt")
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketSession)); err != nil {
			return err
		}

		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketCaches)); err != nil {
			return err
		}

		return nil
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetSession loads the session-state record. Returns an empty record when
// none has been written yet.
func (s *Store) GetSession() (*model.SessionState, error) {
	var data []byte

	if err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(boltBucketSession)).Get([]byte(sessionStateKey)); v != nil {
			data = append(data, v...)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	if data == nil {
		return &model.SessionState{Version: model.SessionVersion}, nil
	}

	var state model.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}

	if state.Version != model.SessionVersion {
		return nil, fmt.Errorf("unsupported session state version %d (want %d)", state.Version, model.SessionVersion)
	}

	return &state, nil
}

// SaveSession writes the session-state record.
func (s *Store) SaveSession(state *model.SessionState) error {
	state.Version = model.SessionVersion

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSession)).Put([]byte(sessionStateKey), data)
	})
}

// GetCache loads the cache record for a workspace. Returns an empty record
// when the workspace has no cache yet.
func (s *Store) GetCache(workspace string) (*model.WorkspaceCache, error) {
	var data []byte

	if err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket([]byte(boltBucketCaches)).Get([]byte(workspace)); v != nil {
			data = append(data, v...)
		}

		return nil
	}); err != nil {
		return nil, err
	}

	if data == nil {
		return &model.WorkspaceCache{
			Version:   model.CacheVersion,
			Workspace: workspace,
		}, nil
	}

	var cache model.WorkspaceCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache for workspace %s: %w", workspace, err)
	}

	if cache.Version != model.CacheVersion {
		return nil, fmt.Errorf("unsupported cache version %d (want %d)", cache.Version, model.CacheVersion)
	}

	return &cache, nil
}

// SaveCache writes a workspace cache record.
func (s *Store) SaveCache(cache *model.WorkspaceCache) error {
	cache.Version = model.CacheVersion
	cache.UpdatedAt = time.Now()

	data, err := json.Marshal(cache)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketCaches)).Put([]byte(cache.Workspace), data)
	})
}

// DeleteCache removes a workspace cache record. Missing records are not an
// error.
func (s *Store) DeleteCache(workspace string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketCaches)).Delete([]byte(workspace))
	})
}
