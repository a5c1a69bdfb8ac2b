// Package client talks to the Fillop API over HTTP. It carries the session
// explicitly and implements the editor-side behaviors: move-up resequencing,
// debounced assessment autosave and infinite-scroll paging.
package client

import (
	"context"
	"encoding/json"
	"fillop/logger"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Scope selects which authoring area the client writes to.
type Scope string

const (
	ScopeAdmin    Scope = "/api/admin"
	ScopeLecturer Scope = "/api/lecturer"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	Scope   Scope
}

type Client struct {
	http    *resty.Client
	session *Session
	scope   Scope
	log     *logger.Logger
}

func New(cfg Config, session *Session, log *logger.Logger) *Client {
	if session == nil {
		session = NewSession()
	}
	if log == nil {
		log = logger.Log
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Scope == "" {
		cfg.Scope = ScopeAdmin
	}

	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if token := session.Token(); token != "" {
			r.SetAuthToken(token)
		}
		return nil
	})

	return &Client{http: rc, session: session, scope: cfg.Scope, log: log}
}

func (c *Client) Session() *Session { return c.session }

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	// Fields holds per-field messages of a 422 validation failure.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("api error %d: %s %v", e.Status, e.Message, e.Fields)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends one request and decodes the envelope's data into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var env envelope
	req := c.http.R().SetContext(ctx).SetResult(&env).SetError(&env)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	// resty reports an undecodable JSON body through err with the response set
	resp, err := req.Execute(method, path)
	if err != nil && (resp == nil || resp.RawResponse == nil) {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: env.Message}
		if err != nil || apiErr.Message == "" {
			// not an envelope, e.g. an unrouted path
			apiErr.Message = strings.TrimSpace(string(resp.Body()))
		}
		c.log.Debug("api request failed", "method", method, "path", path, "status", apiErr.Status, "message", apiErr.Message)
		if resp.StatusCode() == http.StatusUnprocessableEntity && len(env.Data) > 0 && string(env.Data) != "null" {
			if err := json.Unmarshal(env.Data, &apiErr.Fields); err != nil {
				return fmt.Errorf("%w: decode field errors: %w", apiErr, err)
			}
		}
		return apiErr
	}

	if err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%s %s: decode data: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) path(format string, args ...interface{}) string {
	return string(c.scope) + fmt.Sprintf(format, args...)
}
