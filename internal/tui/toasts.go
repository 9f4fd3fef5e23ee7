package tui

import (
	"sync"

	"github.com/0x6d61/storefront/internal/notify"
)

// maxToasts is how many notifications stay on screen.
const maxToasts = 3

// Toasts collects notifications raised while a command runs so the model
// can pick them up on the UI goroutine.
type Toasts struct {
	mu      sync.Mutex
	pending []notify.Message
}

// Notify queues a message.
func (t *Toasts) Notify(kind notify.Kind, message string) {
	t.mu.Lock()
	t.pending = append(t.pending, notify.Message{Kind: kind, Text: message})
	t.mu.Unlock()
}

// Drain returns and forgets the queued messages.
func (t *Toasts) Drain() []notify.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}
