package server

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Finance-Simulator/agent/contract"
)

const subscriberBuffer = 64

// Hub fans simulator events out to every connected websocket. A subscriber
// that falls a full buffer behind is disconnected rather than handed a stream
// with gaps; its channel is closed while the hub stays open.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan contractx.Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan contractx.Event]struct{})}
}

// Run forwards events from src until it is closed or ctx is done, then
// closes every subscriber.
func (h *Hub) Run(ctx context.Context, src <-chan contractx.Event) {
	defer h.close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) Subscribe() (<-chan contractx.Event, func()) {
	ch := make(chan contractx.Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) broadcast(ev contractx.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			delete(h.subs, ch)
			close(ch)
			log.Warn().Str("kind", string(ev.Kind)).Msg("websocket subscriber lagging, disconnected")
		}
	}
}

// Closed reports whether Run has returned and no more events will come.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
