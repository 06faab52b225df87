package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/store"
)

func newCacheFixture(t *testing.T) (*CacheStore, *store.Store, *time.Time) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "state.bolt"))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cs := NewCacheStore(db, CacheStoreOptions{Now: func() time.Time { return now }})

	return cs, db, &now
}

func staticLookup(id string) LookupFunc {
	return func(context.Context) (string, error) { return id, nil }
}

func countedLookup(id string, calls *int) LookupFunc {
	return func(context.Context) (string, error) {
		*calls++

		return id, nil
	}
}

func TestCacheStore_ResolveMissGoesLive(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	liveCalls := 0

	id, err := cs.Resolve(context.Background(), "acme", model.CacheKindUser, "alice", countedLookup("U111", &liveCalls))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if id != "U111" || liveCalls != 1 {
		t.Errorf("Resolve() = %q with %d live calls, want U111 with 1", id, liveCalls)
	}

	// Second resolve must come from the cache
	id, err = cs.Resolve(context.Background(), "acme", model.CacheKindUser, "alice", countedLookup("U111", &liveCalls))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if id != "U111" || liveCalls != 1 {
		t.Errorf("cached Resolve() = %q with %d live calls, want no second live call", id, liveCalls)
	}
}

func TestCacheStore_EntriesNeverAgeOut(t *testing.T) {
	cs, _, now := newCacheFixture(t)

	if err := cs.Put("acme", model.CacheKindChannel, "general", "C111"); err != nil {
		t.Fatal(err)
	}

	*now = now.Add(365 * 24 * time.Hour)

	id, ok, err := cs.Lookup("acme", model.CacheKindChannel, "general")
	if err != nil {
		t.Fatal(err)
	}

	if !ok || id != "C111" {
		t.Errorf("Lookup after a year = %q, %v; entries must not expire by age", id, ok)
	}
}

func TestCacheStore_UseResolvedEvictsStaleAndRetriesOnce(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	// Seed a stale mapping
	if err := cs.Put("acme", model.CacheKindChannel, "general", "C_OLD"); err != nil {
		t.Fatal(err)
	}

	var used []string

	err := cs.UseResolved(context.Background(), "acme", model.CacheKindChannel, "general",
		staticLookup("C_NEW"),
		func(id string) error {
			used = append(used, id)
			if id == "C_OLD" {
				return &NotFoundError{Kind: "channel", Key: id}
			}

			return nil
		})
	if err != nil {
		t.Fatalf("UseResolved() error = %v", err)
	}

	if len(used) != 2 || used[0] != "C_OLD" || used[1] != "C_NEW" {
		t.Errorf("use calls = %v, want stale then fresh", used)
	}

	// The fresh mapping replaced the stale one
	id, ok, err := cs.Lookup("acme", model.CacheKindChannel, "general")
	if err != nil {
		t.Fatal(err)
	}

	if !ok || id != "C_NEW" {
		t.Errorf("Lookup = %q, %v, want the fresh C_NEW", id, ok)
	}
}

func TestCacheStore_UseResolvedSingleRetry(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	if err := cs.Put("acme", model.CacheKindChannel, "general", "C_OLD"); err != nil {
		t.Fatal(err)
	}

	useCalls := 0

	// The fresh ID is also gone: the not-found surfaces, with no second retry
	err := cs.UseResolved(context.Background(), "acme", model.CacheKindChannel, "general",
		staticLookup("C_ALSO_GONE"),
		func(id string) error {
			useCalls++

			return &NotFoundError{Kind: "channel", Key: id}
		})

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("UseResolved() error = %v, want NotFoundError", err)
	}

	if useCalls != 2 {
		t.Errorf("use calls = %d, want exactly 2", useCalls)
	}
}

func TestCacheStore_UseResolvedOtherErrorsPassThrough(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	if err := cs.Put("acme", model.CacheKindChannel, "general", "C111"); err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("wire failure")
	liveCalls := 0

	err := cs.UseResolved(context.Background(), "acme", model.CacheKindChannel, "general",
		countedLookup("C222", &liveCalls),
		func(string) error { return sentinel })

	if !errors.Is(err, sentinel) {
		t.Fatalf("UseResolved() error = %v, want the sentinel", err)
	}

	if liveCalls != 0 {
		t.Errorf("live calls = %d; non-not-found failures must not trigger eviction", liveCalls)
	}
}

func TestCacheStore_PutBumpsFrequentContacts(t *testing.T) {
	cs, db, _ := newCacheFixture(t)

	for range 3 {
		if err := cs.Put("acme", model.CacheKindUser, "alice", "U111"); err != nil {
			t.Fatal(err)
		}
	}

	cache, err := db.GetCache("acme")
	if err != nil {
		t.Fatal(err)
	}

	if cache.FrequentContacts["alice"] != 3 {
		t.Errorf("FrequentContacts[alice] = %d, want 3", cache.FrequentContacts["alice"])
	}
}

func TestCacheStore_DirectoryFreshness(t *testing.T) {
	cs, _, now := newCacheFixture(t)

	fresh, err := cs.DirectoryFresh("acme")
	if err != nil {
		t.Fatal(err)
	}

	if fresh {
		t.Error("DirectoryFresh() = true before any refresh")
	}

	if err := cs.RefreshDirectory("acme", map[string]string{"alice": "U111", "bob": "U222"}); err != nil {
		t.Fatal(err)
	}

	fresh, err = cs.DirectoryFresh("acme")
	if err != nil {
		t.Fatal(err)
	}

	if !fresh {
		t.Error("DirectoryFresh() = false right after a refresh")
	}

	// The bulk directory, unlike individual entries, does go stale
	*now = now.Add(DefaultDirectoryMaxAge + time.Hour)

	fresh, err = cs.DirectoryFresh("acme")
	if err != nil {
		t.Fatal(err)
	}

	if fresh {
		t.Error("DirectoryFresh() = true past the staleness age")
	}

	// Refreshed entries are individually resolvable
	id, ok, err := cs.Lookup("acme", model.CacheKindUser, "bob")
	if err != nil {
		t.Fatal(err)
	}

	if !ok || id != "U222" {
		t.Errorf("Lookup(bob) = %q, %v, want U222 from the directory", id, ok)
	}
}

func TestCacheStore_SelfDM(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	id, err := cs.SelfDM("acme")
	if err != nil {
		t.Fatal(err)
	}

	if id != "" {
		t.Errorf("SelfDM() = %q before save, want empty", id)
	}

	if err := cs.SaveSelfDM("acme", "D111"); err != nil {
		t.Fatal(err)
	}

	id, err = cs.SelfDM("acme")
	if err != nil {
		t.Fatal(err)
	}

	if id != "D111" {
		t.Errorf("SelfDM() = %q, want D111", id)
	}
}

func TestCacheStore_Identity(t *testing.T) {
	cs, _, _ := newCacheFixture(t)

	identity, err := cs.Identity("acme")
	if err != nil {
		t.Fatal(err)
	}

	if identity != nil {
		t.Errorf("Identity() = %+v before save, want nil", identity)
	}

	want := &model.Identity{UserID: "U111", UserName: "alice", TeamID: "T111", TeamName: "Acme", URL: "https://acme.slack.com/"}
	if err := cs.SaveIdentity("acme", want); err != nil {
		t.Fatal(err)
	}

	identity, err = cs.Identity("acme")
	if err != nil {
		t.Fatal(err)
	}

	if identity == nil || *identity != *want {
		t.Errorf("Identity() = %+v, want %+v", identity, want)
	}
}
