// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the identity API client.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB limit

	// requestsPerSecond paces outbound calls; the flow is interactive so
	// a small burst is plenty.
	requestsPerSecond = 5
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all identity API requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// Client is a client for the remote identity API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a new identity API client for the given base URL and
// static API key. An unconfigured client can be created; calls will fail
// with ErrNotConfigured.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: sharedHTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		timeout:    DefaultTimeout,
		userAgent:  "authflow/0.1.0",
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithHTTPClient sets a custom HTTP client (used by tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if the client has a base URL and API key.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// APIKeyMasked returns a masked version of the API key for display.
// SECURITY: Never exposes key fragments - use fingerprint instead.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%x]", len(c.apiKey), h[:4])
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Register creates a new user account. The provider emails a temporary
// password to the given address.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var resp RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/v1/users", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmUser exchanges the temporary password for a permanent one and
// returns the MFA provisioning URI for authenticator enrollment.
func (c *Client) ConfirmUser(ctx context.Context, userID string, req ConfirmUserRequest) (*ConfirmUserResponse, error) {
	var resp ConfirmUserResponse
	path := "/v1/users/" + url.PathEscape(userID) + "/confirm"
	if err := c.do(ctx, http.MethodPost, path, req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConfirmMfaEnrollment completes authenticator enrollment with the first
// OTP code. Success carries no payload.
func (c *Client) ConfirmMfaEnrollment(ctx context.Context, userID string, req ConfirmMfaRequest) error {
	path := "/v1/users/" + url.PathEscape(userID) + "/confirm-mfa"
	return c.do(ctx, http.MethodPost, path, req, "", nil)
}

// Login starts a password login and returns the verification session
// handle required to answer the MFA challenge.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/v1/login", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMfaChallenge answers the MFA challenge and returns the full
// credential set. The verification type is always the software token
// type; callers only supply the session handle and OTP code.
func (c *Client) VerifyMfaChallenge(ctx context.Context, req VerifyMfaRequest) (*TokenResponse, error) {
	if req.VerificationType == "" {
		req.VerificationType = VerificationTypeSoftwareToken
	}
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/mfa-verify", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh exchanges a refresh token for a fresh credential set.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, "/v1/refresh-token", req, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UserInfo fetches the authenticated user's profile using the ID token.
// The payload shape is provider-defined, so it is returned as a map.
func (c *Client) UserInfo(ctx context.Context, idToken string) (map[string]any, error) {
	if idToken == "" {
		return nil, ErrNoToken
	}
	var profile map[string]any
	if err := c.do(ctx, http.MethodGet, "/v1/userinfo", nil, idToken, &profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do performs a single API request and decodes the response into out
// (which may be nil for operations without a success payload).
// Non-2xx responses become *APIError; transport and decode failures are
// wrapped with context and left for the caller to normalize.
func (c *Client) do(ctx context.Context, method, path string, body any, bearer string, out any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, bearer)

	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after the request
	// so it can never reach a log line.
	req.Header.Del("Authorization")

	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logResponse(method, path, resp.StatusCode, time.Since(start))

	data, err := readResponse(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// setHeaders sets the required headers for identity API requests.
func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
}

// logResponse logs an API response line with duration.
// IDENTITY: Secure logging - status and duration only, never headers or
// bodies (they carry passwords, OTP codes, and token material).
func (c *Client) logResponse(method, path string, status int, duration time.Duration) {
	log.Printf("identity: %s %s -> %d (%v)", method, path, status, duration)
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return data, nil
}

// handleErrorResponse converts non-2xx responses into *APIError, keeping
// the server's message verbatim when one is present.
func (c *Client) handleErrorResponse(statusCode int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return &APIError{Status: statusCode, Message: body.Message}
	}
	return &APIError{Status: statusCode, Message: fmt.Sprintf("HTTP %d", statusCode)}
}
