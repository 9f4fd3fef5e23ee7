package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

// Response is the answer to a Request, body fully read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	// Duration is the round-trip time.
	Duration time.Duration
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into out. An empty body leaves out
// untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

// ErrorMessage returns the message of an error body
// ({"message": ...} or {"error": ...}), or "" when there is none.
func (r *Response) ErrorMessage() string {
	var eb struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(r.Body, &eb) != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
