// ABOUTME: HTTP client for the login-activity endpoints of the auth backend
// ABOUTME: Bearer auth via oauth2 token sources; errors carry the server message
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/harperreed/dealdesk/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrUnauthorized is wrapped into errors for 401 responses.
var ErrUnauthorized = errors.New("unauthorized")

// envelope is the response shape shared by every auth endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is returned for non-2xx responses and success=false bodies.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a client for baseURL that authenticates every request with
// tokens from ts. Requests are not retried.
func NewClient(ctx context.Context, baseURL string, ts oauth2.TokenSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    oauth2.NewClient(ctx, ts),
		logger:  logger,
	}
}

// NewStaticClient authenticates with a fixed bearer token.
func NewStaticClient(ctx context.Context, baseURL, token string, logger *zap.Logger) *Client {
	return NewClient(ctx, baseURL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), logger)
}

// LoginActivity returns the most recent login sessions, newest first as the
// server orders them. limit <= 0 leaves the server default.
func (c *Client) LoginActivity(ctx context.Context, limit int) ([]models.LoginActivity, error) {
	u := c.baseURL + "/v1/auth/login-activity"
	if limit > 0 {
		u += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}

	activity := []models.LoginActivity{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &activity); err != nil {
			return nil, fmt.Errorf("failed to decode login activity: %w", err)
		}
	}
	return activity, nil
}

// LogoutSession ends the session with sessionID.
func (c *Client) LogoutSession(ctx context.Context, sessionID string) error {
	body, err := json.Marshal(map[string]string{"sessionId": sessionID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/logout-session", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("auth request failed", zap.String("url", req.URL.Path), zap.Error(err))
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Message
		if decodeErr != nil || msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("auth request rejected",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &env, nil
}
