package adminsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Client talks to the admin API. It keeps the refresh_token and
// csrf_session cookies in its jar, so one Client represents one browser.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with an empty cookie jar.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil) // only fails with a non-nil options arg
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// Login obtains a CSRF nonce and signs in as the owner. otp may be empty
// when no second factor is configured.
func (c *Client) Login(ctx context.Context, password, otp string) (*Session, error) {
	csrf, err := c.CSRFToken(ctx)
	if err != nil {
		return nil, err
	}

	tokenResp, err := c.LoginWithToken(ctx, LoginRequest{
		Password: password,
		Token:    csrf,
		OTP:      otp,
	})
	if err != nil {
		return nil, err
	}

	return newSession(c, tokenResp), nil
}

// ResumeSession exchanges the refresh cookie already held in the jar for a
// new session.
func (c *Client) ResumeSession(ctx context.Context) (*Session, error) {
	tokenResp, err := c.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokenResp), nil
}

// RefreshCookie returns the refresh token currently held in the jar.
func (c *Client) RefreshCookie() string {
	return c.cookie(RefreshCookieName)
}

// SetRefreshCookie replaces the refresh token held in the jar.
func (c *Client) SetRefreshCookie(token string) {
	c.setCookie(RefreshCookieName, token)
}
