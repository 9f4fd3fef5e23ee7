// Package cart sequences cart mutations. Every mutation is a request to
// the API followed by wholesale replacement of the local snapshot with the
// server's response; the snapshot is never edited locally.
package cart

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/0x6d61/storefront/internal/domain"
)

// API is the cart part of the API facade. *api.CartService satisfies it.
type API interface {
	Get(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, lineID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context) (*domain.Cart, error)
}

// SessionSource exposes the current session.
type SessionSource interface {
	Current() *domain.Session
}

// Sequencer owns the cart snapshot.
type Sequencer struct {
	api      API
	session  SessionSource
	logger   *zap.Logger
	onChange func(*domain.Cart)

	mu       sync.Mutex
	snapshot *domain.Cart
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// OnChange registers a hook called with every new snapshot.
func OnChange(fn func(*domain.Cart)) Option {
	return func(s *Sequencer) {
		s.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSequencer creates a Sequencer with no snapshot loaded.
func NewSequencer(api API, session SessionSource, opts ...Option) *Sequencer {
	s := &Sequencer{api: api, session: session, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current cart, or nil before the first load.
func (s *Sequencer) Snapshot() *domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Reset drops the snapshot, e.g. on logout.
func (s *Sequencer) Reset() {
	s.replace(nil)
}

func (s *Sequencer) replace(c *domain.Cart) {
	s.mu.Lock()
	s.snapshot = c
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange(c)
	}
}

func (s *Sequencer) checkRole() error {
	if s.session != nil && s.session.Current().IsAdmin() {
		return domain.ErrAdminNoCart
	}
	return nil
}

// apply runs one request-then-replace step.
func (s *Sequencer) apply(ctx context.Context, op string, call func(context.Context) (*domain.Cart, error)) (*domain.Cart, error) {
	if err := s.checkRole(); err != nil {
		return nil, err
	}
	c, err := call(ctx)
	if err != nil {
		s.logger.Debug("cart mutation failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	s.replace(c)
	s.logger.Debug("cart replaced",
		zap.String("op", op),
		zap.Int("lines", len(c.Items)),
		zap.String("total", c.Total.StringFixed(2)))
	return c, nil
}

// Load fetches the cart. When an anonymous load fails the snapshot becomes
// an empty cart and no error is returned.
func (s *Sequencer) Load(ctx context.Context) (*domain.Cart, error) {
	if err := s.checkRole(); err != nil {
		return nil, err
	}
	c, err := s.api.Get(ctx)
	if err != nil {
		if s.session == nil || s.session.Current() == nil {
			s.logger.Debug("anonymous cart unavailable", zap.Error(err))
			empty := domain.EmptyCart()
			s.replace(empty)
			return empty, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s.replace(c)
	return c, nil
}

// Add puts quantity units of a product in the cart.
func (s *Sequencer) Add(ctx context.Context, productID string, quantity int) (*domain.Cart, error) {
	if err := s.checkRole(); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domain.NewValidationError("quantity", "Quantity must be at least 1")
	}
	return s.apply(ctx, "add", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.AddItem(ctx, productID, quantity)
	})
}

// Increment raises a line's quantity by one.
func (s *Sequencer) Increment(ctx context.Context, lineID string) (*domain.Cart, error) {
	if err := s.checkRole(); err != nil {
		return nil, err
	}
	l, err := s.line(lineID)
	if err != nil {
		return nil, err
	}
	return s.SetQuantity(ctx, lineID, l.Quantity+1)
}

// Decrement lowers a line's quantity by one. A line at quantity one is
// removed.
func (s *Sequencer) Decrement(ctx context.Context, lineID string) (*domain.Cart, error) {
	if err := s.checkRole(); err != nil {
		return nil, err
	}
	l, err := s.line(lineID)
	if err != nil {
		return nil, err
	}
	return s.SetQuantity(ctx, lineID, l.Quantity-1)
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (s *Sequencer) SetQuantity(ctx context.Context, lineID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.Remove(ctx, lineID)
	}
	return s.apply(ctx, "update", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.UpdateItem(ctx, lineID, quantity)
	})
}

// Remove deletes a line.
func (s *Sequencer) Remove(ctx context.Context, lineID string) (*domain.Cart, error) {
	return s.apply(ctx, "remove", func(ctx context.Context) (*domain.Cart, error) {
		return s.api.RemoveItem(ctx, lineID)
	})
}

// Clear empties the cart.
func (s *Sequencer) Clear(ctx context.Context) (*domain.Cart, error) {
	return s.apply(ctx, "clear", s.api.Clear)
}

func (s *Sequencer) line(lineID string) (domain.CartLine, error) {
	l, ok := s.Snapshot().Line(lineID)
	if !ok {
		return domain.CartLine{}, &domain.NotFoundError{Entity: "cart item", ID: lineID}
	}
	return l, nil
}
