// Package api is the typed client for the managed-credential backend. Every
// response crosses a boundary-parsing function here; nothing downstream sees
// a raw payload.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"keyadmin/internal/pkg/errors"
	"keyadmin/internal/platform/config"
)

// TokenSource yields the bearer credential for one outgoing call. The console
// wires this to the caller's session cookie.
type TokenSource func(ctx context.Context) string

// UnauthorizedHook is invoked whenever the backend answers 401.
type UnauthorizedHook func()

type Client struct {
	base           *url.URL
	http           *http.Client
	token          TokenSource
	onUnauthorized UnauthorizedHook
}

func NewClient(cfg config.BackendConfig, token TokenSource, onUnauthorized UnauthorizedHook) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend base URL: %w", err)
	}

	return &Client{
		base:           base,
		http:           &http.Client{Timeout: cfg.RequestTimeout},
		token:          token,
		onUnauthorized: onUnauthorized,
	}, nil
}

// do issues one request and decodes the response into out (out may be nil
// for calls whose body the caller discards). A 401 trips the unauthorized
// hook before returning; an unparseable body becomes a DecodeError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return errors.ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.readAPIError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errors.DecodeError{Op: method + " " + path, Err: err}
	}
	return nil
}

func (c *Client) readAPIError(resp *http.Response) error {
	apiErr := &errors.APIError{Status: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && json.Unmarshal(raw, &payload) == nil {
		apiErr.Detail = payload.Detail
	}
	if apiErr.Detail == "" {
		log.Debug().Int("status", resp.StatusCode).Str("url", resp.Request.URL.Path).
			Msg("backend error without detail payload")
	}
	return apiErr
}
