// Package session persists the client-side session between runs: the API
// token and user, the guest cart id, the last customer email used at
// checkout and the last active route.
package session

import (
	"context"
	"time"

	"github.com/0x6d61/storefront/internal/domain"
)

// State is everything the storefront keeps across restarts for one API.
type State struct {
	ID            string       `json:"id"`
	APIURL        string       `json:"api_url"`
	Token         string       `json:"token,omitempty"`
	User          *domain.User `json:"user,omitempty"`
	GuestID       string       `json:"guest_id"`
	CustomerEmail string       `json:"customer_email,omitempty"`
	LastRoute     string       `json:"last_route,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Session returns the authenticated session, or nil when anonymous.
func (s *State) Session() *domain.Session {
	if s == nil || s.Token == "" || s.User == nil {
		return nil
	}
	return &domain.Session{Token: s.Token, User: *s.User}
}

// Summary is a lightweight overview of a stored state.
type Summary struct {
	ID        string    `json:"id"`
	APIURL    string    `json:"api_url"`
	UserEmail string    `json:"user_email"`
	LastRoute string    `json:"last_route"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists and retrieves session state.
type Store interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context, apiURL string) (*State, error)
	LoadByID(ctx context.Context, id string) (*State, error)
	List(ctx context.Context) ([]*Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}
