package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ---------------------------------------------------------------------------
// Helper: create a default test client
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T) *DefaultClient {
	t.Helper()
	c, err := NewClient(ClientOptions{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// ---------------------------------------------------------------------------
// Basic GET
// ---------------------------------------------------------------------------

func TestBasicGET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `[{"_id":"p1"}]`)
	}))
	defer srv.Close()

	c := newTestClient(t)
	resp, err := c.Do(context.Background(), &Request{URL: srv.URL + "/api/products"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !resp.OK() {
		t.Errorf("StatusCode = %d, want 2xx", resp.StatusCode)
	}

	var out []map[string]string
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(out) != 1 || out[0]["_id"] != "p1" {
		t.Errorf("decoded %v", out)
	}
}

// ---------------------------------------------------------------------------
// JSON requests
// ---------------------------------------------------------------------------

func TestNewJSONRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write(body)
	}))
	defer srv.Close()

	req, err := NewJSONRequest(http.MethodPost, srv.URL+"/api/cart/items",
		map[string]any{"productId": "p1", "quantity": 1})
	if err != nil {
		t.Fatalf("NewJSONRequest: %v", err)
	}

	resp, err := newTestClient(t).Do(context.Background(), req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if string(resp.Body) != `{"productId":"p1","quantity":1}` {
		t.Errorf("Body = %q", resp.Body)
	}
}

func TestNewJSONRequest_NilBody(t *testing.T) {
	req, err := NewJSONRequest(http.MethodDelete, "http://shop.test/api/cart", nil)
	if err != nil {
		t.Fatalf("NewJSONRequest: %v", err)
	}
	if req.Body != nil || req.ContentType != "" {
		t.Errorf("expected no body, got %q (%q)", req.Body, req.ContentType)
	}
}

func TestNewJSONRequest_Unencodable(t *testing.T) {
	if _, err := NewJSONRequest(http.MethodPost, "http://shop.test", make(chan int)); err == nil {
		t.Fatal("expected an encode error")
	}
}

// ---------------------------------------------------------------------------
// Credentials and headers
// ---------------------------------------------------------------------------

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		creds     Credentials
		wantAuth  string
		wantGuest string
	}{
		{name: "token", creds: Credentials{Token: "tok", GuestID: "g1"}, wantAuth: "Bearer tok"},
		{name: "guest", creds: Credentials{GuestID: "g1"}, wantGuest: "g1"},
		{name: "none", creds: Credentials{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{}
			req.Authorize(tt.creds)
			if got := req.Headers[HeaderAuthorization]; got != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", got, tt.wantAuth)
			}
			if got := req.Headers[HeaderGuestSession]; got != tt.wantGuest {
				t.Errorf("X-Session-Id = %q, want %q", got, tt.wantGuest)
			}
		})
	}
}

func TestHeadersAndUserAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", got, DefaultUserAgent)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q, want application/json", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	req := &Request{URL: srv.URL}
	req.Authorize(Credentials{Token: "tok"})
	if _, err := newTestClient(t).Do(context.Background(), req); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

func TestResponseOK(t *testing.T) {
	for _, code := range []int{200, 201, 204, 301, 400, 401, 404, 500} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			r := &Response{StatusCode: code}
			want := code >= 200 && code < 300
			if r.OK() != want {
				t.Errorf("OK() = %v for status %d", r.OK(), code)
			}
		})
	}
}

func TestResponseErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"Invalid credentials"}`, "Invalid credentials"},
		{`{"error":"Out of stock"}`, "Out of stock"},
		{`{"message":"a","error":"b"}`, "a"},
		{`<html>oops</html>`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		r := &Response{StatusCode: 400, Body: []byte(tt.body)}
		if got := r.ErrorMessage(); got != tt.want {
			t.Errorf("ErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestResponseDecode_EmptyBody(t *testing.T) {
	out := map[string]string{"kept": "yes"}
	if err := (&Response{Body: []byte("  ")}).Decode(&out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out["kept"] != "yes" {
		t.Error("empty body must leave the target untouched")
	}
}

// ---------------------------------------------------------------------------
// Timeouts and failures
// ---------------------------------------------------------------------------

func TestPerRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t)
	_, err := c.Do(context.Background(), &Request{URL: srv.URL, Timeout: 20 * time.Millisecond})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if c.Stats().Failures != 1 {
		t.Errorf("Failures = %d, want 1", c.Stats().Failures)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(t).Do(ctx, &Request{URL: srv.URL})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestInvalidProxyURL(t *testing.T) {
	if _, err := NewClient(ClientOptions{ProxyURL: "not a url"}); err == nil {
		t.Fatal("expected error for invalid proxy URL")
	}
}

// ---------------------------------------------------------------------------
// Stats tracking
// ---------------------------------------------------------------------------

func TestStatsTracking(t *testing.T) {
	var n atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t)
	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), &Request{URL: srv.URL}); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}

	stats := c.Stats()
	if stats.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", stats.TotalRequests)
	}
	if stats.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", stats.ServerErrors)
	}
	if stats.Failures != 0 {
		t.Errorf("Failures = %d, want 0", stats.Failures)
	}
	if stats.AvgDuration <= 0 || stats.TotalDuration < stats.AvgDuration {
		t.Errorf("durations not tracked: %+v", stats)
	}
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func TestRoundTripIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	core, logs := observer.New(zap.DebugLevel)
	c, err := NewClient(ClientOptions{Timeout: 5 * time.Second, Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.Do(context.Background(), &Request{Method: http.MethodDelete, URL: srv.URL + "/api/cart"}); err != nil {
		t.Fatalf("Do: %v", err)
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodDelete || fields["status"] != int64(http.StatusNoContent) {
		t.Errorf("unexpected fields %v", fields)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestSetRateLimit(t *testing.T) {
	c := newTestClient(t)
	if c.limiter != nil {
		t.Fatal("expected no limiter by default")
	}
	c.SetRateLimit(10)
	if c.limiter == nil {
		t.Fatal("expected limiter after SetRateLimit(10)")
	}
	c.SetRateLimit(0)
	if c.limiter != nil {
		t.Fatal("expected limiter removed after SetRateLimit(0)")
	}
}

func TestRateLimitSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(ClientOptions{Timeout: 5 * time.Second, MaxRPS: 20})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := c.Do(context.Background(), &Request{URL: srv.URL}); err != nil {
			t.Fatalf("Do: %v", err)
		}
	}
	// burst of one: the 2nd and 3rd request each wait ~50ms
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests at 20 rps took %v, want >= 80ms", elapsed)
	}
}
