// Package transport provides the HTTP layer the storefront API client
// sends every call through.
package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Header names carrying the caller's identity.
const (
	HeaderAuthorization = "Authorization"
	HeaderGuestSession  = "X-Session-Id"
)

// Request is one call to the shop API.
type Request struct {
	Method string

	// URL is the absolute target URL.
	URL string

	Headers map[string]string

	// Body is the encoded request body, nil for none.
	Body []byte

	ContentType string

	// Timeout overrides the client-level timeout for this request. Zero
	// means use the client default.
	Timeout time.Duration
}

// NewJSONRequest builds a request whose body is in encoded as JSON. A nil
// in sends no body.
func NewJSONRequest(method, url string, in any) (*Request, error) {
	req := &Request{Method: method, URL: url}
	if in == nil {
		return req, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, url, err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

// Credentials identify the caller: a bearer token once signed in, the
// guest cart id before that.
type Credentials struct {
	Token   string
	GuestID string
}

// Authorize attaches c to the request. The token wins over the guest id.
func (r *Request) Authorize(c Credentials) {
	switch {
	case c.Token != "":
		r.SetHeader(HeaderAuthorization, "Bearer "+c.Token)
	case c.GuestID != "":
		r.SetHeader(HeaderGuestSession, c.GuestID)
	}
}

// SetHeader sets a header, allocating the map on first use.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[http.CanonicalHeaderKey(key)] = value
}
