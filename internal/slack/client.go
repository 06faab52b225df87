// Package slack implements a Slack Web API client that authenticates with
// browser session tokens (xoxc token plus xoxd cookie) instead of a bot token,
// so it sees exactly what the signed-in user sees.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HartreeWorks/slackpull/internal/core"
)

const (
	slackAPIBaseURL = "https://slack.com/api"

	// defaultUserAgent is sent when no client signature is configured.
	// Session tokens are only honored for requests that look like a browser.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"
)

// Client is a Slack Web API client for a single workspace.
type Client struct {
	token      string
	cookie     string
	userAgent  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOptions configures a Slack client.
type ClientOptions struct {
	// UserAgent overrides the client signature string
	UserAgent string

	// BaseURL overrides the API endpoint, for tests
	BaseURL string

	// HTTPClient overrides the default client (30s timeout)
	HTTPClient *http.Client

	Logger *slog.Logger
}

// NewClient creates a Slack client from a workspace credential pair.
func NewClient(xoxcToken, xoxdCookie string, opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = slackAPIBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		token:      xoxcToken,
		cookie:     xoxdCookie,
		userAgent:  userAgent,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Channel represents a Slack conversation.
type Channel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsChannel  bool   `json:"is_channel"`
	IsGroup    bool   `json:"is_group"`
	IsIM       bool   `json:"is_im"`
	IsMpIM     bool   `json:"is_mpim"`
	IsPrivate  bool   `json:"is_private"`
	IsArchived bool   `json:"is_archived"`
	IsMember   bool   `json:"is_member"`
	User       string `json:"user,omitempty"` // IM counterpart
	NumMembers int    `json:"num_members"`
}

// Type classifies the conversation the way the archive records it.
func (ch Channel) Type() string {
	switch {
	case ch.IsIM:
		return "im"
	case ch.IsMpIM:
		return "mpim"
	case ch.IsPrivate:
		return "private_channel"
	default:
		return "public_channel"
	}
}

// Message represents a Slack message.
type Message struct {
	Type       string `json:"type"`
	User       string `json:"user"`
	Text       string `json:"text"`
	Timestamp  string `json:"ts"`
	ThreadTS   string `json:"thread_ts,omitempty"`
	ReplyCount int    `json:"reply_count,omitempty"`
	BotID      string `json:"bot_id,omitempty"`
}

// User represents a Slack user.
type User struct {
	ID       string      `json:"id"`
	TeamID   string      `json:"team_id"`
	Name     string      `json:"name"`
	Deleted  bool        `json:"deleted"`
	RealName string      `json:"real_name"`
	IsBot    bool        `json:"is_bot"`
	Profile  UserProfile `json:"profile"`
}

// UserProfile represents a user's profile.
type UserProfile struct {
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// SearchMessage represents a search result message.
type SearchMessage struct {
	Type      string  `json:"type"`
	User      string  `json:"user"`
	Username  string  `json:"username"`
	Text      string  `json:"text"`
	Timestamp string  `json:"ts"`
	ThreadTS  string  `json:"thread_ts,omitempty"`
	Channel   Channel `json:"channel"`
	Permalink string  `json:"permalink"`
}

// SearchPaging represents search pagination info.
type SearchPaging struct {
	Count int `json:"count"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// SearchResult represents one page of search results.
type SearchResult struct {
	Query   string
	Total   int
	Paging  SearchPaging
	Matches []SearchMessage
}

// ResponseMetadata contains cursor information.
type ResponseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

// slackResponse is the common Slack API response envelope.
type slackResponse struct {
	OK               bool              `json:"ok"`
	Error            string            `json:"error,omitempty"`
	ResponseMetadata *ResponseMetadata `json:"response_metadata,omitempty"`
}

// AuthTestResult contains auth.test information.
type AuthTestResult struct {
	URL    string `json:"url"`
	Team   string `json:"team"`
	User   string `json:"user"`
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
}

// AuthTest validates the credentials and returns the signed-in identity.
func (c *Client) AuthTest(ctx context.Context) (*AuthTestResult, error) {
	var resp struct {
		slackResponse

		URL    string `json:"url"`
		Team   string `json:"team"`
		User   string `json:"user"`
		TeamID string `json:"team_id"`
		UserID string `json:"user_id"`
	}

	if err := c.post(ctx, "auth.test", nil, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("auth.test", resp.Error)
	}

	return &AuthTestResult{
		URL:    resp.URL,
		Team:   resp.Team,
		User:   resp.User,
		TeamID: resp.TeamID,
		UserID: resp.UserID,
	}, nil
}

// ListChannelsOptions configures ListChannels.
type ListChannelsOptions struct {
	ExcludeArchived bool
	Types           string // comma-separated: public_channel,private_channel,mpim,im
	Limit           int
	Cursor          string
}

// ListChannelsResult contains the channels list result.
type ListChannelsResult struct {
	Channels   []Channel
	NextCursor string
}

// ListChannels lists conversations the signed-in user can see.
func (c *Client) ListChannels(ctx context.Context, opts ListChannelsOptions) (*ListChannelsResult, error) {
	form := url.Values{}
	form.Set("exclude_archived", strconv.FormatBool(opts.ExcludeArchived))

	if opts.Types != "" {
		form.Set("types", opts.Types)
	} else {
		form.Set("types", "public_channel,private_channel,im,mpim")
	}

	if opts.Limit > 0 {
		form.Set("limit", strconv.Itoa(opts.Limit))
	} else {
		form.Set("limit", "200")
	}

	if opts.Cursor != "" {
		form.Set("cursor", opts.Cursor)
	}

	var resp struct {
		slackResponse

		Channels []Channel `json:"channels"`
	}

	if err := c.post(ctx, "conversations.list", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("conversations.list", resp.Error)
	}

	result := &ListChannelsResult{Channels: resp.Channels}
	if resp.ResponseMetadata != nil {
		result.NextCursor = resp.ResponseMetadata.NextCursor
	}

	return result, nil
}

// ListUsersOptions configures ListUsers.
type ListUsersOptions struct {
	Cursor string
	Limit  int
}

// ListUsersResult contains the users list result.
type ListUsersResult struct {
	Users      []User
	NextCursor string
}

// ListUsers lists workspace users.
func (c *Client) ListUsers(ctx context.Context, opts ListUsersOptions) (*ListUsersResult, error) {
	form := url.Values{}

	if opts.Limit > 0 {
		form.Set("limit", strconv.Itoa(opts.Limit))
	} else {
		form.Set("limit", "200")
	}

	if opts.Cursor != "" {
		form.Set("cursor", opts.Cursor)
	}

	var resp struct {
		slackResponse

		Members []User `json:"members"`
	}

	if err := c.post(ctx, "users.list", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("users.list", resp.Error)
	}

	result := &ListUsersResult{Users: resp.Members}
	if resp.ResponseMetadata != nil {
		result.NextCursor = resp.ResponseMetadata.NextCursor
	}

	return result, nil
}

// GetChannelHistoryOptions configures GetChannelHistory.
type GetChannelHistoryOptions struct {
	Channel string
	Limit   int
	Oldest  string
	Latest  string
	Cursor  string
}

// GetChannelHistoryResult contains the history result.
type GetChannelHistoryResult struct {
	Messages   []Message
	HasMore    bool
	NextCursor string
}

// GetChannelHistory gets messages from a channel or DM.
func (c *Client) GetChannelHistory(ctx context.Context, opts GetChannelHistoryOptions) (*GetChannelHistoryResult, error) {
	form := url.Values{}
	form.Set("channel", opts.Channel)

	if opts.Limit > 0 {
		form.Set("limit", strconv.Itoa(opts.Limit))
	} else {
		form.Set("limit", "100")
	}

	if opts.Oldest != "" {
		form.Set("oldest", opts.Oldest)
	}

	if opts.Latest != "" {
		form.Set("latest", opts.Latest)
	}

	if opts.Cursor != "" {
		form.Set("cursor", opts.Cursor)
	}

	var resp struct {
		slackResponse

		Messages []Message `json:"messages"`
		HasMore  bool      `json:"has_more"`
	}

	if err := c.post(ctx, "conversations.history", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("conversations.history", resp.Error)
	}

	result := &GetChannelHistoryResult{
		Messages: resp.Messages,
		HasMore:  resp.HasMore,
	}
	if resp.ResponseMetadata != nil {
		result.NextCursor = resp.ResponseMetadata.NextCursor
	}

	return result, nil
}

// GetThreadRepliesOptions configures GetThreadReplies.
type GetThreadRepliesOptions struct {
	Channel  string
	ThreadTS string
	Cursor   string
	Limit    int
}

// GetThreadRepliesResult contains one page of a thread.
type GetThreadRepliesResult struct {
	Messages   []Message
	HasMore    bool
	NextCursor string
}

// GetThreadReplies gets the root message and replies of a thread.
func (c *Client) GetThreadReplies(ctx context.Context, opts GetThreadRepliesOptions) (*GetThreadRepliesResult, error) {
	form := url.Values{}
	form.Set("channel", opts.Channel)
	form.Set("ts", opts.ThreadTS)

	if opts.Limit > 0 {
		form.Set("limit", strconv.Itoa(opts.Limit))
	} else {
		form.Set("limit", "100")
	}

	if opts.Cursor != "" {
		form.Set("cursor", opts.Cursor)
	}

	var resp struct {
		slackResponse

		Messages []Message `json:"messages"`
		HasMore  bool      `json:"has_more"`
	}

	if err := c.post(ctx, "conversations.replies", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("conversations.replies", resp.Error)
	}

	result := &GetThreadRepliesResult{
		Messages: resp.Messages,
		HasMore:  resp.HasMore,
	}
	if resp.ResponseMetadata != nil {
		result.NextCursor = resp.ResponseMetadata.NextCursor
	}

	return result, nil
}

// SearchMessagesOptions configures SearchMessages.
type SearchMessagesOptions struct {
	Query string
	Sort  string // score or timestamp
	Dir   string // asc or desc
	Count int
	Page  int
}

// SearchMessages searches for messages. The query supports Slack search
// modifiers (from:, in:, after:, before:).
func (c *Client) SearchMessages(ctx context.Context, opts SearchMessagesOptions) (*SearchResult, error) {
	form := url.Values{}
	form.Set("query", opts.Query)

	if opts.Sort != "" {
		form.Set("sort", opts.Sort)
	} else {
		form.Set("sort", "timestamp")
	}

	if opts.Dir != "" {
		form.Set("sort_dir", opts.Dir)
	}

	if opts.Count > 0 {
		form.Set("count", strconv.Itoa(opts.Count))
	} else {
		form.Set("count", "20")
	}

	if opts.Page > 0 {
		form.Set("page", strconv.Itoa(opts.Page))
	}

	var resp struct {
		slackResponse

		Query    string `json:"query"`
		Messages struct {
			Total   int             `json:"total"`
			Paging  SearchPaging    `json:"paging"`
			Matches []SearchMessage `json:"matches"`
		} `json:"messages"`
	}

	if err := c.post(ctx, "search.messages", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("search.messages", resp.Error)
	}

	return &SearchResult{
		Query:   resp.Query,
		Total:   resp.Messages.Total,
		Paging:  resp.Messages.Paging,
		Matches: resp.Messages.Matches,
	}, nil
}

// PostMessageOptions configures PostMessage.
type PostMessageOptions struct {
	Channel  string
	Text     string
	ThreadTS string // reply into a thread when set
}

// PostMessageResult contains the posted message reference.
type PostMessageResult struct {
	Channel   string
	Timestamp string
}

// PostMessage sends a message to a channel, DM, or thread.
func (c *Client) PostMessage(ctx context.Context, opts PostMessageOptions) (*PostMessageResult, error) {
	form := url.Values{}
	form.Set("channel", opts.Channel)
	form.Set("text", opts.Text)
	form.Set("unfurl_links", "true")
	form.Set("unfurl_media", "true")

	if opts.ThreadTS != "" {
		form.Set("thread_ts", opts.ThreadTS)
	}

	var resp struct {
		slackResponse

		Channel   string `json:"channel"`
		Timestamp string `json:"ts"`
	}

	if err := c.post(ctx, "chat.postMessage", form, &resp); err != nil {
		return nil, err
	}

	if !resp.OK {
		return nil, c.apiError("chat.postMessage", resp.Error)
	}

	return &PostMessageResult{Channel: resp.Channel, Timestamp: resp.Timestamp}, nil
}

// post makes an authenticated form-encoded POST to the Slack API. Session
// tokens require the token in the form body, the xoxd value in the "d"
// cookie, and the stealth fields a signed-in web client sends.
func (c *Client) post(ctx context.Context, method string, form url.Values, result any) error {
	payload := url.Values{}
	payload.Set("token", c.token)
	payload.Set("_x_reason", "api-call")
	payload.Set("_x_mode", "online")
	payload.Set("_x_sonic", "true")
	payload.Set("_x_app_name", "client")

	for key, values := range form {
		for _, v := range values {
			payload.Add(key, v)
		}
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en-NZ,en-AU;q=0.9,en;q=0.8")
	req.AddCookie(&http.Cookie{Name: "d", Value: c.cookie})

	c.logger.Debug("slack API request", "method", method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &core.RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &core.MalformedResponseError{Method: method, Err: err}
	}

	return nil
}

// apiError maps a Slack "error" code to the core taxonomy.
func (c *Client) apiError(method, code string) error {
	switch code {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return &core.AuthError{Reason: code}
	case "ratelimited", "rate_limited":
		return &core.RateLimitedError{}
	case "channel_not_found":
		return &core.NotFoundError{Kind: "channel", Key: method}
	case "user_not_found", "users_not_found":
		return &core.NotFoundError{Kind: "user", Key: method}
	case "thread_not_found", "message_not_found":
		return &core.NotFoundError{Kind: "thread", Key: method}
	}

	return fmt.Errorf("slack API error from %s: %s", method, code)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}

	return time.Duration(secs) * time.Second
}

// PermalinkStyle selects the path form of a generated permalink.
type PermalinkStyle string

const (
	// PermalinkApp uses the /archives/ path, which opens in the Slack app
	PermalinkApp PermalinkStyle = "app"

	// PermalinkBrowser uses the /messages/ path, which opens in the browser
	PermalinkBrowser PermalinkStyle = "browser"
)

// Permalink derives a stable deep link to one message from the workspace
// subdomain, channel ID, and message timestamp.
func Permalink(team, channel, ts string, style PermalinkStyle) string {
	path := "archives"
	if style == PermalinkBrowser {
		path = "messages"
	}

	return fmt.Sprintf("https://%s.slack.com/%s/%s/p%s",
		team, path, channel, strings.ReplaceAll(ts, ".", ""))
}

// TeamFromURL extracts the workspace subdomain from an auth.test URL
// like "https://example.slack.com/".
func TeamFromURL(authURL string) string {
	team := strings.TrimPrefix(authURL, "https://")
	team = strings.TrimPrefix(team, "http://")

	if idx := strings.Index(team, ".slack.com"); idx >= 0 {
		return team[:idx]
	}

	return strings.TrimSuffix(team, "/")
}

// ParseTimestamp parses a Slack timestamp to time.Time.
func ParseTimestamp(ts string) (time.Time, error) {
	// Slack timestamps are Unix timestamps with a decimal (e.g., "1234567890.123456")
	var sec, usec int64
	if _, err := fmt.Sscanf(ts, "%d.%d", &sec, &usec); err != nil {
		if s, parseErr := strconv.ParseInt(ts, 10, 64); parseErr == nil {
			return time.Unix(s, 0), nil
		}

		return time.Time{}, fmt.Errorf("invalid timestamp: %s", ts)
	}

	return time.Unix(sec, usec*1000), nil
}

// FormatTimestamp formats a time.Time to Slack timestamp.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}
