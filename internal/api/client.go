// Package api is the storefront's client for the remote REST API. It
// exposes one service per resource (auth, products, cart, orders) and
// tracks the authenticated session that every request is sent under.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/transport"
)

// Client is the API facade. Its services share the transport and the
// current session.
type Client struct {
	Auth     *AuthService
	Products *ProductService
	Cart     *CartService
	Orders   *OrderService

	transport transport.Client
	baseURL   string
	logger    *zap.Logger

	mu      sync.RWMutex
	session *domain.Session
	guestID string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithGuestID sets the id anonymous carts are keyed by.
func WithGuestID(id string) Option {
	return func(c *Client) {
		c.guestID = id
	}
}

// WithSession restores a previously persisted session.
func WithSession(s *domain.Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

// New creates an API client rooted at baseURL (e.g. http://localhost:5000).
func New(tc transport.Client, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q: missing scheme or host", baseURL)
	}

	c := &Client{
		transport: tc,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.Auth = &AuthService{client: c}
	c.Products = &ProductService{client: c}
	c.Cart = &CartService{client: c}
	c.Orders = &OrderService{client: c}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GuestID returns the anonymous cart id.
func (c *Client) GuestID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guestID
}

func (c *Client) currentSession() *domain.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setSession(s *domain.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// do sends a JSON request to path and decodes a successful response into
// out (which may be nil). Non-2xx responses are mapped to domain errors.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	req, err := transport.NewJSONRequest(method, c.baseURL+path, in)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	creds := transport.Credentials{GuestID: c.GuestID()}
	if s := c.currentSession(); s != nil {
		creds.Token = s.Token
	}
	req.Authorize(creds)

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &domain.NetworkError{Err: err}
	}
	if !resp.OK() {
		return mapStatus(resp)
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("api: decode %s %s: %w", method, path, err)
	}
	return nil
}

// mapStatus converts an error response into the matching domain error.
func mapStatus(resp *transport.Response) error {
	msg := resp.ErrorMessage()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &domain.AuthError{Message: msg}
	case http.StatusForbidden:
		if msg == "" {
			msg = domain.ErrAdminRequired.Message
		}
		return &domain.PermissionError{Message: msg}
	case http.StatusNotFound:
		return &domain.NotFoundError{Entity: "resource"}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg != "" {
			return domain.NewValidationError("", msg)
		}
	}
	return &domain.ServerError{StatusCode: resp.StatusCode, Message: msg}
}

// withEntity names the entity on a NotFoundError returned by do.
func withEntity(err error, entity, id string) error {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
