// Package notify delivers user-facing notifications. Every component
// reports through the single Notifier interface; presentation (terminal
// lines, toasts, log records, confetti) is chosen by the implementation.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Kind classifies a notification.
type Kind int

const (
	Info Kind = iota
	Success
	Error
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a plain function to Notifier.
type Func func(kind Kind, message string)

// Notify calls f.
func (f Func) Notify(kind Kind, message string) {
	f(kind, message)
}

// Nop discards notifications.
var Nop Notifier = Func(func(Kind, string) {})

// ---------------------------------------------------------------------------
// Writer
// ---------------------------------------------------------------------------

// Writer prints one prefixed line per notification:
//
//	[+] success   [!] error   [*] info
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter creates a Writer that prints to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Notify prints the message.
func (n *Writer) Notify(kind Kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", Prefix(kind), message)
}

// Prefix returns the terminal marker for kind.
func Prefix(kind Kind) string {
	switch kind {
	case Success:
		return "[+]"
	case Error:
		return "[!]"
	default:
		return "[*]"
	}
}

// ---------------------------------------------------------------------------
// Log
// ---------------------------------------------------------------------------

// Log records notifications on a zap logger. Errors are logged at warn.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a Log notifier.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Notify logs the message.
func (n *Log) Notify(kind Kind, message string) {
	if kind == Error {
		n.logger.Warn(message, zap.Stringer("kind", kind))
		return
	}
	n.logger.Info(message, zap.Stringer("kind", kind))
}

// ---------------------------------------------------------------------------
// Combinators
// ---------------------------------------------------------------------------

// Multi fans a notification out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return Func(func(kind Kind, message string) {
		for _, n := range ns {
			if n != nil {
				n.Notify(kind, message)
			}
		}
	})
}

// Confetti is the celebration line appended after a success.
const Confetti = "🎉 🎊 🎉"

// WithConfetti decorates next so that every success is followed by a
// confetti burst. Other kinds pass through unchanged.
func WithConfetti(next Notifier) Notifier {
	return Func(func(kind Kind, message string) {
		next.Notify(kind, message)
		if kind == Success {
			next.Notify(Info, Confetti)
		}
	})
}

// ---------------------------------------------------------------------------
// Recorder
// ---------------------------------------------------------------------------

// Message is one recorded notification.
type Message struct {
	Kind Kind
	Text string
}

// Recorder keeps every notification in memory. It is safe for concurrent
// use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Notify records the message.
func (r *Recorder) Notify(kind Kind, message string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Kind: kind, Text: message})
	r.mu.Unlock()
}

// Messages returns a copy of the recorded notifications.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Count returns how many notifications of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// Contains reports whether any message of kind contains substr.
func (r *Recorder) Contains(kind Kind, substr string) bool {
	for _, m := range r.Messages() {
		if m.Kind == kind && strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

// Reset forgets all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.messages = nil
	r.mu.Unlock()
}

// New builds the notifier for a configured style. Unknown styles fall back
// to plain lines on w.
func New(style string, w io.Writer, logger *zap.Logger) Notifier {
	switch style {
	case "log":
		return NewLog(logger)
	case "confetti":
		return WithConfetti(Multi(NewWriter(w), NewLog(logger)))
	default:
		return Multi(NewWriter(w), NewLog(logger))
	}
}
