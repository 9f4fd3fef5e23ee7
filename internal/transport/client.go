package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when ClientOptions.UserAgent is empty.
const DefaultUserAgent = "storefront/1.0"

// Client sends API requests. The api package depends on this interface so
// tests can swap the HTTP layer.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	SetRateLimit(rps float64)
	Stats() *Stats
}

// Stats aggregates what the client has sent.
type Stats struct {
	TotalRequests int64
	// Failures counts requests that got no response at all.
	Failures int64
	// ServerErrors counts 5xx responses.
	ServerErrors  int64
	TotalDuration time.Duration
	AvgDuration   time.Duration
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	// Timeout is the default timeout for all requests.
	Timeout time.Duration

	// ProxyURL is the proxy URL (HTTP or SOCKS5).
	ProxyURL string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	UserAgent string

	// MaxRPS is the maximum requests per second (0 = unlimited).
	MaxRPS float64

	// Logger traces every round trip at debug level. Nil disables it.
	Logger *zap.Logger
}

// DefaultClient is the net/http implementation of Client.
type DefaultClient struct {
	httpClient *http.Client
	opts       ClientOptions
	logger     *zap.Logger

	mu      sync.RWMutex
	limiter *rate.Limiter
	stats   Stats
}

var _ Client = (*DefaultClient)(nil)

// NewClient creates a DefaultClient.
func NewClient(opts ClientOptions) (*DefaultClient, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
		ForceAttemptHTTP2: true,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL: missing scheme or host")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dc := &DefaultClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts:   opts,
		logger: logger,
	}
	dc.SetRateLimit(opts.MaxRPS)

	return dc, nil
}

// Do sends req after waiting for the rate limiter and returns the response
// with its body read. Only a missing response is an error; any status code
// is returned as a Response.
func (c *DefaultClient) Do(ctx context.Context, req *Request) (*Response, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.opts.UserAgent)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpClient := c.httpClient
	if req.Timeout > 0 {
		cc := *c.httpClient
		cc.Timeout = req.Timeout
		httpClient = &cc
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		c.record(time.Since(start), 0, true)
		c.logger.Debug("http request failed",
			zap.String("method", method),
			zap.String("url", req.URL),
			zap.Error(err))
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	duration := time.Since(start)
	if err != nil {
		c.record(duration, 0, true)
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	c.record(duration, httpResp.StatusCode, false)

	c.logger.Debug("http request",
		zap.String("method", method),
		zap.String("url", req.URL),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   duration,
	}, nil
}

func (c *DefaultClient) record(d time.Duration, status int, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalRequests++
	c.stats.TotalDuration += d
	if failed {
		c.stats.Failures++
	}
	if status >= 500 {
		c.stats.ServerErrors++
	}
}

// SetRateLimit sets the maximum number of requests per second.
// A value of 0 or less disables rate limiting.
func (c *DefaultClient) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rps <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Stats returns a copy of the aggregate statistics.
func (c *DefaultClient) Stats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	if s.TotalRequests > 0 {
		s.AvgDuration = s.TotalDuration / time.Duration(s.TotalRequests)
	}
	return &s
}
