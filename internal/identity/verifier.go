package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// User is the authenticated principal attached to each request.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves a bearer token to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

// Client verifies tokens against an external identity service exposing the
// GoTrue-style GET /auth/v1/user endpoint.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Verify(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("identity service rejected token: status %d", resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, fmt.Errorf("decode identity response: %w", err)
	}
	if user.ID == "" {
		return User{}, fmt.Errorf("identity response missing user id")
	}
	return user, nil
}

// Stub is a verifier that always fails. It stands in when the identity
// service is misconfigured so that requests fail closed instead of panicking
// at startup.
type Stub struct {
	Reason string
}

func (s Stub) Verify(context.Context, string) (User, error) {
	return User{}, fmt.Errorf("identity service unavailable: %s", s.Reason)
}

// NewVerifier returns a live client when baseURL parses as an absolute URL,
// otherwise a failing stub.
func NewVerifier(baseURL, apiKey string) Verifier {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Stub{Reason: "AUTH_URL is not a valid absolute URL"}
	}
	return NewClient(baseURL, apiKey)
}
