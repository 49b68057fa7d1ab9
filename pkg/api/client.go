// Package api is the storefront's REST transport. It owns bearer-token
// injection, JSON encoding, response envelope decoding, per-request
// timeouts, and retry of idempotent reads. Domain packages build their
// operations on top of it and never touch net/http directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sethvargo/go-retry"

	"github.com/nawaweeb/storefront/pkg/config"
	pkgerrors "github.com/nawaweeb/storefront/pkg/errors"
	"github.com/nawaweeb/storefront/pkg/logger"
)

// TokenSource yields the current bearer token, if a session exists.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client issues JSON requests against the storefront backend.
type Client struct {
	baseURL       string
	http          *http.Client
	tokens        TokenSource
	logg          *logger.Logger
	retryAttempts uint64
	retryBackoff  retryBackoffFunc
}

type retryBackoffFunc func() retry.Backoff

// NewClient validates the configuration and builds the REST client.
// tokens may be nil for a purely anonymous client.
func NewClient(cfg config.APIConfig, tokens TokenSource, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	backoff := cfg.RetryBackoff
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		tokens:        tokens,
		logg:          logg,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff: func() retry.Backoff {
			return retry.NewFibonacci(backoff)
		},
	}, nil
}

// Get fetches path and decodes the body into out. Transient failures
// (transport errors, 5xx, 429) are retried with fibonacci backoff; GETs
// are the only verbs the client retries since nothing else is idempotent
// against this backend.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return retry.Do(ctx, retry.WithMaxRetries(c.retryAttempts, c.retryBackoff()), func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err != nil && pkgerrors.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Post sends body as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Patch sends body as JSON to path and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE to path and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding request body")
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(ctx); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s", method, path))
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(ctx, method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decoding %s %s response", method, path))
	}
	return nil
}

// rejection is the failure payload shape the backend uses everywhere.
type rejection struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) errorFromResponse(ctx context.Context, method, path string, resp *http.Response) error {
	code := pkgerrors.CodeForStatus(resp.StatusCode)
	message := fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)

	var rej rejection
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, &rej) == nil {
			// Surface the server-provided message so the user can act on it.
			if rej.Message != "" {
				message = rej.Message
			} else if rej.Error != "" {
				message = rej.Error
			}
		}
	}

	c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
		"method": method,
		"path":   path,
		"status": resp.StatusCode,
	}), "request rejected by backend")

	return pkgerrors.New(code, message)
}
