package domain

import "time"

// RemoteCredentials stores the OAuth tokens of the remote drive account.
// At most one set is kept; connecting a different account replaces it.
type RemoteCredentials struct {
	// AccountIdentifier is the user's email, when known.
	AccountIdentifier string `json:"account_identifier,omitempty"`
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
	// UpdatedAt is when the credentials were last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired returns true if the access token has expired.
func (c *RemoteCredentials) IsExpired() bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().After(c.Expiry)
}

// IsUsable returns true if the credentials hold a live token or can refresh one.
func (c *RemoteCredentials) IsUsable() bool {
	if c == nil {
		return false
	}
	if c.AccessToken != "" && !c.IsExpired() {
		return true
	}
	return c.RefreshToken != ""
}
