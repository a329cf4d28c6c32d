// Package dashboard serves the live process dashboard over HTTP.
package dashboard

import "sync"

// Hub fans one change notification out to every connected SSE client.
// Notifications carry no payload; clients refetch on any signal.
type Hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

// subscribe registers a listener. The returned cancel func must be
// called when the client disconnects.
func (h *Hub) subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// notify signals every subscriber without blocking. A subscriber that
// already has a pending signal is skipped.
func (h *Hub) notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
