// Package api is an HTTP client for the workload tracker REST API. It keeps
// the session token, refreshes it when the server says it is about to
// expire, and retries once after an expired-token 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/workloadtracker/internal/client/models"
)

const (
	headerExpiringSoon = "X-Token-Expiring-Soon"
	tokenExpiredMsg    = "token expired"
	refreshPath        = "/api/auth/refresh"
	defaultTimeout     = 30 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore

	mu    sync.RWMutex
	token string

	refreshes singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithStore loads the saved token and keeps the store in sync with every
// login, refresh and logout.
func WithStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store != nil && c.token == "" {
		token, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		c.token = token
	}
	return c, nil
}

// Token returns the current bearer token, "" when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if token == "" {
		return c.store.Clear()
	}
	return c.store.Save(token)
}

func (c *Client) Login(ctx context.Context, username, password string) (*models.Session, error) {
	body := map[string]string{"username": username, "password": password}

	var sess models.Session
	res, err := c.send(ctx, http.MethodPost, "/api/auth/login", body, "")
	if err != nil {
		return nil, err
	}
	if err := res.decode(&sess); err != nil {
		return nil, err
	}
	if err := c.setToken(sess.Token); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &sess, nil
}

// Logout tells the server (which may revoke the token) and forgets the
// token locally even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	token := c.Token()
	if token == "" {
		return nil
	}

	var serverErr error
	if res, err := c.send(ctx, http.MethodPost, "/api/auth/logout", nil, token); err != nil {
		serverErr = err
	} else {
		serverErr = res.decode(nil)
	}

	if err := c.setToken(""); err != nil {
		return err
	}
	if serverErr != nil && !errors.Is(serverErr, ErrUnauthorized) {
		return serverErr
	}
	return nil
}

// Do sends an authenticated request and decodes the envelope data into out
// (which may be nil).
//
// When the response carries X-Token-Expiring-Soon the token is refreshed in
// the background of this call; a failure there does not fail the request.
// A 401 "token expired" triggers a refresh and one retry. Refreshes are
// single-flight: concurrent callers share one refresh call and its result.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	token := c.Token()
	if token == "" {
		return ErrReauthRequired
	}

	res, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}

	switch {
	case res.status == http.StatusUnauthorized && res.env.Message == tokenExpiredMsg:
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}
		res, err = c.send(ctx, method, path, body, fresh)
		if err != nil {
			return err
		}

	case res.header.Get(headerExpiringSoon) == "true":
		_, _ = c.refresh(ctx, token)
	}

	return res.decode(out)
}

// refresh exchanges stale for a new token. If another caller already
// replaced stale, its result is reused without a round trip.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.refreshes.Do("refresh", func() (any, error) {
		if cur := c.Token(); cur != "" && cur != stale {
			return cur, nil
		}

		res, err := c.send(context.WithoutCancel(ctx), http.MethodPost, refreshPath, nil, stale)
		if err != nil {
			return "", err
		}

		var sess models.Session
		if err := res.decode(&sess); err != nil || sess.Token == "" {
			_ = c.setToken("")
			return "", ErrReauthRequired
		}
		if err := c.setToken(sess.Token); err != nil {
			return "", fmt.Errorf("save token: %w", err)
		}
		return sess.Token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []FieldError    `json:"errors"`
}

type response struct {
	status int
	header http.Header
	env    envelope
}

func (r *response) decode(out any) error {
	if r.status < 200 || r.status > 299 {
		return &Error{Status: r.status, Message: r.env.Message, Fields: r.env.Errors}
	}
	if out == nil || len(r.env.Data) == 0 || string(r.env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, token string) (*response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	out := &response{status: res.StatusCode, header: res.Header}
	if err := json.NewDecoder(res.Body).Decode(&out.env); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	return out, nil
}
