package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/HartreeWorks/slackpull/internal/core"
	"github.com/HartreeWorks/slackpull/internal/encoding"
	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/slack"
	"github.com/HartreeWorks/slackpull/internal/store"
)

// session bundles everything a command needs to talk to one workspace.
type session struct {
	db        *store.Store
	config    *core.WorkspaceConfig
	cache     *core.CacheStore
	workspace *model.Workspace
	client    *slack.Client
}

func (s *session) close() {
	_ = s.db.Close()
}

// openSession loads config and state, resolves the governing workspace, and
// builds a client for it.
func openSession(opts core.ResolveOptions) (*session, error) {
	config, err := core.LoadWorkspaces("")
	if err != nil {
		return nil, err
	}

	db, err := store.Open("")
	if err != nil {
		return nil, err
	}

	resolver := core.NewResolver(config, db, core.ResolverOptions{Logger: logger})

	ws, err := resolver.Resolve(opts)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return &session{
		db:        db,
		config:    config,
		cache:     core.NewCacheStore(db, core.CacheStoreOptions{Logger: logger}),
		workspace: ws,
		client: slack.NewClient(ws.XOXCToken, ws.XOXDCookie, slack.ClientOptions{
			UserAgent: ws.UserAgent,
			Logger:    logger,
		}),
	}, nil
}

// identity returns the workspace identity, from cache when available.
func (s *session) identity(ctx context.Context) (*model.Identity, error) {
	cached, err := s.cache.Identity(s.workspace.Name)
	if err != nil {
		return nil, err
	}

	if cached != nil {
		return cached, nil
	}

	auth, err := s.client.AuthTest(ctx)
	if err != nil {
		return nil, err
	}

	identity := &model.Identity{
		UserID:   auth.UserID,
		UserName: auth.User,
		TeamID:   auth.TeamID,
		TeamName: auth.Team,
		URL:      auth.URL,
	}

	if err := s.cache.SaveIdentity(s.workspace.Name, identity); err != nil {
		return nil, err
	}

	return identity, nil
}

// looksLikeChannelID reports whether the argument is a platform channel ID
// (C..., D..., G...) rather than a human channel name.
func looksLikeChannelID(s string) bool {
	if len(s) < 9 {
		return false
	}

	switch s[0] {
	case 'C', 'D', 'G':
	default:
		return false
	}

	for _, r := range s[1:] {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}

// channelResolveOptions builds resolver hints from a channel argument that
// may be an ID or a human name.
func channelResolveOptions(workspace, channel string) core.ResolveOptions {
	opts := core.ResolveOptions{Workspace: workspace}

	if channel == "" {
		return opts
	}

	if looksLikeChannelID(channel) {
		opts.ChannelID = channel
	} else {
		opts.ChannelName = strings.TrimPrefix(channel, "#")
	}

	return opts
}

// liveChannelLookup pages conversations.list until the named channel is
// found, caching every channel seen along the way.
func (s *session) liveChannelLookup(name string) core.LookupFunc {
	return func(ctx context.Context) (string, error) {
		cursor := ""

		for {
			page, err := s.client.ListChannels(ctx, slack.ListChannelsOptions{
				ExcludeArchived: true,
				Cursor:          cursor,
			})
			if err != nil {
				return "", err
			}

			found := ""
			for _, ch := range page.Channels {
				if ch.Name != "" {
					if err := s.cache.Put(s.workspace.Name, model.CacheKindChannel, ch.Name, ch.ID); err != nil {
						return "", err
					}
				}

				if ch.Name == name {
					found = ch.ID
				}
			}

			if found != "" {
				return found, nil
			}

			if page.NextCursor == "" {
				return "", &core.NotFoundError{Kind: "channel", Key: name}
			}

			cursor = page.NextCursor
		}
	}
}

// withChannelID resolves a channel argument (ID or name) to a platform ID and
// runs use with it, with the cache's eviction-and-retry semantics applied.
func (s *session) withChannelID(ctx context.Context, channel string, use func(id string) error) error {
	if looksLikeChannelID(channel) {
		return use(channel)
	}

	name := strings.TrimPrefix(channel, "#")

	return s.cache.UseResolved(ctx, s.workspace.Name, model.CacheKindChannel, name, s.liveChannelLookup(name), use)
}

func printJSON(v any) error {
	data, err := encoding.ToJSONIndent(v)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(os.Stdout, string(data))

	return nil
}
