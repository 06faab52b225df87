package model

// Workspace represents one Slack workspace credential scope.
// Workspaces are loaded from the credentials file and are immutable afterwards.
type Workspace struct {
	// Name is the unique identifier for this workspace (e.g., "work", "personal")
	Name string `json:"name"`

	// XOXCToken is the browser session API token (xoxc-...)
	XOXCToken string `json:"xoxc_token"`

	// XOXDCookie is the browser session cookie value (xoxd-...)
	XOXDCookie string `json:"xoxd_cookie"`

	// UserAgent is the client signature sent with every request.
	// Empty means the built-in browser signature is used.
	UserAgent string `json:"user_agent,omitempty"`

	// Default indicates this workspace is used when resolution finds no better match
	Default bool `json:"default"`
}
