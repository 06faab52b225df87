package core

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/HartreeWorks/slackpull/internal/model"
	"github.com/HartreeWorks/slackpull/internal/params"
	"github.com/HartreeWorks/slackpull/internal/store"
	"gopkg.in/ini.v1"
)

const (
	// CredentialsFileName is the workspace credentials file under appdata
	CredentialsFileName = "credentials.ini"

	// recentActivityWindow is how long a workspace counts as recently active
	// for resolution purposes
	recentActivityWindow = 10 * time.Minute
)

// CredentialsPath returns the default credentials file location.
func CredentialsPath() string {
	return filepath.Join(params.AppdataDir, CredentialsFileName)
}

// WorkspaceConfig is the ordered set of configured workspaces.
type WorkspaceConfig struct {
	Workspaces []model.Workspace
}

// LoadWorkspaces reads the credentials file. A missing file yields an empty
// config, not an error.
func LoadWorkspaces(path string) (*WorkspaceConfig, error) {
	if path == "" {
		path = CredentialsPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &WorkspaceConfig{}, nil
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %s: %w", path, err)
	}

	var config WorkspaceConfig

	for _, name := range cfg.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}

		section := cfg.Section(name)

		ws := model.Workspace{
			Name:       name,
			XOXCToken:  section.Key("xoxc_token").String(),
			XOXDCookie: section.Key("xoxd_cookie").String(),
			UserAgent:  section.Key("user_agent").String(),
			Default:    section.Key("default").MustBool(false),
		}

		if ws.XOXCToken == "" || ws.XOXDCookie == "" {
			return nil, fmt.Errorf("workspace %q in %s is missing xoxc_token or xoxd_cookie", name, path)
		}

		config.Workspaces = append(config.Workspaces, ws)
	}

	return &config, nil
}

// SaveWorkspaces writes the full workspace set back to the credentials file.
func SaveWorkspaces(path string, config *WorkspaceConfig) error {
	if path == "" {
		path = CredentialsPath()
	}

	cfg := ini.Empty()

	for _, ws := range config.Workspaces {
		section, err := cfg.NewSection(ws.Name)
		if err != nil {
			return err
		}

		section.Key("xoxc_token").SetValue(ws.XOXCToken)
		section.Key("xoxd_cookie").SetValue(ws.XOXDCookie)

		if ws.UserAgent != "" {
			section.Key("user_agent").SetValue(ws.UserAgent)
		}

		if ws.Default {
			section.Key("default").SetValue("true")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save credentials to %s: %w", path, err)
	}

	// Tokens live in this file
	return os.Chmod(path, 0600)
}

// Get returns the workspace with the given name.
func (c *WorkspaceConfig) Get(name string) (*model.Workspace, bool) {
	for i := range c.Workspaces {
		if c.Workspaces[i].Name == name {
			return &c.Workspaces[i], true
		}
	}

	return nil, false
}

// Default returns the workspace flagged as default, or nil.
func (c *WorkspaceConfig) Default() *model.Workspace {
	for i := range c.Workspaces {
		if c.Workspaces[i].Default {
			return &c.Workspaces[i]
		}
	}

	return nil
}

// ResolveOptions are the hints available to workspace resolution.
type ResolveOptions struct {
	// Workspace is the explicit workspace name, when given
	Workspace string

	// ChannelID is a platform channel ID involved in the operation
	ChannelID string

	// ChannelName is a human channel name with no ID-level hint
	ChannelName string
}

// Resolver chooses which configured workspace governs an operation.
type Resolver struct {
	config *WorkspaceConfig
	db     *store.Store
	logger *slog.Logger

	now func() time.Time
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	Logger *slog.Logger

	// Now overrides the clock, for tests
	Now func() time.Time
}

// NewResolver creates a resolver over the configured workspaces and the
// session/cache store.
func NewResolver(config *WorkspaceConfig, db *store.Store, opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Resolver{
		config: config,
		db:     db,
		logger: logger,
		now:    now,
	}
}

// Resolve picks exactly one workspace using, in order: explicit hint, the
// persisted channel→workspace map, recent activity, the configured default,
// and finally configuration order. A channel name matching cached channels in
// more than one workspace yields AmbiguousWorkspaceError instead of a guess.
// Every successful resolution records the choice in the session state.
func (r *Resolver) Resolve(opts ResolveOptions) (*model.Workspace, error) {
	if len(r.config.Workspaces) == 0 {
		return nil, fmt.Errorf("no workspaces configured: run 'slackpull workspace add' first")
	}

	if opts.Workspace != "" {
		ws, ok := r.config.Get(opts.Workspace)
		if !ok {
			return nil, fmt.Errorf("unknown workspace: %s", opts.Workspace)
		}

		return r.commit(ws, opts)
	}

	session, err := r.db.GetSession()
	if err != nil {
		return nil, err
	}

	if opts.ChannelID != "" {
		if name, ok := session.ChannelWorkspaces[opts.ChannelID]; ok {
			if ws, configured := r.config.Get(name); configured {
				return r.commit(ws, opts)
			}
		}
	}

	if opts.ChannelName != "" {
		candidates, err := r.channelNameCandidates(opts.ChannelName)
		if err != nil {
			return nil, err
		}

		switch len(candidates) {
		case 0:
			// fall through to the activity heuristics
		case 1:
			ws, _ := r.config.Get(candidates[0])

			return r.commit(ws, opts)
		default:
			return nil, &AmbiguousWorkspaceError{Channel: opts.ChannelName, Candidates: candidates}
		}
	}

	if ws := r.recentlyActive(session); ws != nil {
		return r.commit(ws, opts)
	}

	if ws := r.config.Default(); ws != nil {
		return r.commit(ws, opts)
	}

	return r.commit(&r.config.Workspaces[0], opts)
}

// channelNameCandidates returns configured workspaces whose cache knows a
// channel by this name, in configuration order.
func (r *Resolver) channelNameCandidates(name string) ([]string, error) {
	var candidates []string

	for _, ws := range r.config.Workspaces {
		cache, err := r.db.GetCache(ws.Name)
		if err != nil {
			return nil, err
		}

		if _, ok := cache.Channels[name]; ok {
			candidates = append(candidates, ws.Name)
		}
	}

	return candidates, nil
}

// recentlyActive returns the most recently used configured workspace if its
// last activity falls inside the recency window.
func (r *Resolver) recentlyActive(session *model.SessionState) *model.Workspace {
	var (
		best     *model.Workspace
		bestTime time.Time
	)

	cutoff := r.now().Add(-recentActivityWindow)

	for name, at := range session.LastActive {
		if at.Before(cutoff) || at.After(r.now()) {
			continue
		}

		ws, ok := r.config.Get(name)
		if !ok {
			continue
		}

		if best == nil || at.After(bestTime) {
			best = ws
			bestTime = at
		}
	}

	return best
}

// commit records the resolution side effects and returns the chosen workspace.
func (r *Resolver) commit(ws *model.Workspace, opts ResolveOptions) (*model.Workspace, error) {
	session, err := r.db.GetSession()
	if err != nil {
		return nil, err
	}

	if session.LastActive == nil {
		session.LastActive = make(map[string]time.Time)
	}

	session.ActiveWorkspace = ws.Name
	session.LastActive[ws.Name] = r.now()

	if opts.ChannelID != "" {
		if session.ChannelWorkspaces == nil {
			session.ChannelWorkspaces = make(map[string]string)
		}

		session.ChannelWorkspaces[opts.ChannelID] = ws.Name
	}

	if err := r.db.SaveSession(session); err != nil {
		return nil, err
	}

	r.logger.Debug("resolved workspace", slog.String("workspace", ws.Name))

	return ws, nil
}
