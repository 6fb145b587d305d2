// Package client talks to the planner REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// NewEvent is the POST /events body.
type NewEvent struct {
	Text       string  `json:"text"`
	Date       string  `json:"date"`
	CategoryID *string `json:"categoryId,omitempty"`
}

// NewCategory is the POST /categories body.
type NewCategory struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Client is a thin JSON client for the backend.
type Client struct {
	http    *http.Client
	baseURL string
	log     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Client for baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// ListEvents fetches the full event collection and any categories with it.
func (c *Client) ListEvents(ctx context.Context) (EventsPayload, error) {
	body, err := c.do(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return EventsPayload{}, err
	}
	return DecodeEvents(body)
}

// ListCategories fetches all categories.
func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	body, err := c.do(ctx, http.MethodGet, "/categories", nil)
	if err != nil {
		return nil, err
	}
	return DecodeCategories(body)
}

// CreateEvent posts a new event and returns the stored copy.
func (c *Client) CreateEvent(ctx context.Context, in NewEvent) (model.Event, error) {
	var out model.Event
	body, err := c.do(ctx, http.MethodPost, "/events", in)
	if err != nil {
		return out, err
	}
	return out, decodeEntity(body, "event", &out)
}

// UpdateEvent patches the fields set in patch.
func (c *Client) UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error) {
	var out model.Event
	body, err := c.do(ctx, http.MethodPatch, "/events/"+url.PathEscape(id), patch)
	if err != nil {
		return out, err
	}
	return out, decodeEntity(body, "event", &out)
}

// DeleteEvent deletes by id.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(id), nil)
	return err
}

// CreateCategory posts a new category and returns the stored copy.
func (c *Client) CreateCategory(ctx context.Context, in NewCategory) (model.Category, error) {
	var out model.Category
	body, err := c.do(ctx, http.MethodPost, "/categories", in)
	if err != nil {
		return out, err
	}
	return out, decodeEntity(body, "category", &out)
}

// UpdateCategory patches the fields set in patch.
func (c *Client) UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error) {
	var out model.Category
	body, err := c.do(ctx, http.MethodPatch, "/categories/"+url.PathEscape(id), patch)
	if err != nil {
		return out, err
	}
	return out, decodeEntity(body, "category", &out)
}

// DeleteCategory deletes by id. The backend clears references itself.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil)
	return err
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s %s: %w", ErrTransport, method, path, err)
	}

	c.log.Debug(ctx, "backend request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	return body, nil
}

// errorMessage prefers {error}, then {message}, then the raw body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(status)
}
