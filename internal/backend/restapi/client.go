// Package restapi implements the service.Service interface over the task
// REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskctl/internal/logging"
	"taskctl/internal/service"
)

const (
	tasksPath      = "/tasks"
	byDueDatePath  = "/tasks/order-by-due-date"
	healthPath     = "/"
	jsonMediaType  = "application/json"
	maxDetailBytes = 200
)

// Client implements service.Service using the task REST API.
type Client struct {
	baseURL string
	http    *http.Client
	anon    *http.Client
	timeout time.Duration
	log     logging.Logger
}

// Options configures New.
type Options struct {
	// BaseURL is the API base URL.
	BaseURL string

	// Tokens supplies the bearer token for each request. Nil means no
	// session: authenticated calls fail with service.ErrUnauthorized.
	Tokens oauth2.TokenSource

	// Transport is the underlying transport. Nil uses http.DefaultTransport.
	Transport http.RoundTripper

	// Timeout bounds each call. Zero means no timeout.
	Timeout time.Duration

	Log logging.Logger
}

// New creates a client that attaches the current session token to every
// request. The token source is consulted per request, so a cleared
// session fails with service.ErrUnauthorized without reaching the network.
func New(opts Options) *Client {
	log := opts.Log
	if log == nil {
		log = logging.Discard()
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = noSession{}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   opts.Transport,
			},
		},
		anon:    &http.Client{Transport: opts.Transport},
		timeout: opts.Timeout,
		log:     log,
	}
}

type noSession struct{}

func (noSession) Token() (*oauth2.Token, error) {
	return nil, fmt.Errorf("%w: not logged in", service.ErrUnauthorized)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The HTTP client is responsible for authentication.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		anon:    httpClient,
		log:     logging.Discard(),
	}
}

// List returns all tasks of the authenticated user.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, tasksPath, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByDueDate returns all tasks ordered by due date.
func (c *Client) ListByDueDate(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, byDueDatePath, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create creates a new task.
func (c *Client) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPost, tasksPath, fields, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update applies a partial update to a task.
func (c *Client) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), patch, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// Ping fetches the health message. It needs no session.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.doWith(ctx, c.anon, http.MethodGet, healthPath, nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.doWith(ctx, c.http, method, path, body, out)
}

// doWith performs one request/response exchange. A nil body sends no body.
func (c *Client) doWith(ctx context.Context, hc *http.Client, method, path string, body, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", jsonMediaType)
	if body != nil {
		req.Header.Set("Content-Type", jsonMediaType)
	}

	start := time.Now()
	res, err := hc.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "err", err)
		return wrapError(ctx, err)
	}
	defer googleapi.CloseBody(res)
	c.log.Debug("request done", "method", method, "path", path, "status", res.StatusCode, "took", time.Since(start))

	if err := googleapi.CheckResponse(res); err != nil {
		return wrapError(ctx, err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return nil
}

// wrapError maps transport and status errors onto the service taxonomy.
func wrapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		detail := errorDetail(apiErr)
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s", service.ErrUnauthorized, detail)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", service.ErrNotFound, detail)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %s", service.ErrValidation, detail)
		default:
			return fmt.Errorf("server returned %d: %s", apiErr.Code, detail)
		}
	}

	// Token source failures already carry the taxonomy.
	if errors.Is(err, service.ErrUnauthorized) {
		return err
	}

	// Check for timeout and cancellation
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: request timed out", service.ErrNetwork)
		}
		return ctxErr
	}

	return fmt.Errorf("%w: %v", service.ErrNetwork, err)
}

// errorDetail extracts the backend's "detail" message, which may be a
// string or a list of validation entries.
func errorDetail(e *googleapi.Error) string {
	if e.Message != "" {
		return e.Message
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal([]byte(e.Body), &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		var items []struct {
			Loc []interface{} `json:"loc"`
			Msg string        `json:"msg"`
		}
		if json.Unmarshal(body.Detail, &items) == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if n := len(it.Loc); n > 0 {
					msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[n-1], it.Msg))
				} else {
					msgs = append(msgs, it.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
	}

	text := strings.TrimSpace(e.Body)
	if text == "" {
		return http.StatusText(e.Code)
	}
	if len(text) > maxDetailBytes {
		text = text[:maxDetailBytes] + "..."
	}
	return text
}
