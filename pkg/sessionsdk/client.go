package sessionsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the session service.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Login exchanges a credential for a token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.post(ctx, "/v1/sessions", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh redeems a refresh token for a new pair. The old token is consumed
// whether or not the caller stores the result, so persist the new pair first.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.Login(ctx, LoginRequest{RefreshToken: refreshToken})
}

// CheckRefresh asks whether a refresh token is still redeemable without
// consuming it.
func (c *Client) CheckRefresh(ctx context.Context, refreshToken string) (*RefreshCheckResponse, error) {
	var out RefreshCheckResponse
	err := c.post(ctx, "/v1/sessions/refresh-check", "", RefreshCheckRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestOneTimeCode asks the service to issue a login code for an account.
func (c *Client) RequestOneTimeCode(ctx context.Context, email string) error {
	return c.post(ctx, "/v1/sessions/one-time-code", "", OneTimeCodeRequest{Email: email}, nil)
}

// Whoami resolves the subject behind an access token.
func (c *Client) Whoami(ctx context.Context, accessToken string) (*SubjectResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/sessions/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var out SubjectResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the caller's password. Every outstanding token
// dies at its next use afterwards.
func (c *Client) ChangePassword(ctx context.Context, accessToken string, req ChangePasswordRequest) error {
	return c.post(ctx, "/v1/sessions/password", accessToken, req, nil)
}

// Livez probes service liveness.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/livez", nil)
	if err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path, bearer string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Type == "" {
			return fmt.Errorf("sessionsdk: unexpected status %d", resp.StatusCode)
		}
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
