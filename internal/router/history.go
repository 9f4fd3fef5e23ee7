package router

// History is the back/forward stack of visited routes.
type History struct {
	entries []Route
	pos     int
}

// Push records r as the newest entry, discarding any forward entries.
func (h *History) Push(r Route) {
	if len(h.entries) > 0 {
		h.entries = h.entries[:h.pos+1]
	}
	h.entries = append(h.entries, r)
	h.pos = len(h.entries) - 1
}

// Back steps one entry back.
func (h *History) Back() (Route, bool) {
	if h.pos <= 0 || len(h.entries) == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Forward steps one entry forward.
func (h *History) Forward() (Route, bool) {
	if h.pos >= len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

// Current returns the entry at the cursor.
func (h *History) Current() (Route, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	return h.entries[h.pos], true
}

// Entries returns a copy of the stack.
func (h *History) Entries() []Route {
	return append([]Route(nil), h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
