package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 32

type Toast struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Hub is a Display that fans toasts out to every subscriber. Slow
// subscribers miss toasts rather than block the hub.
type Hub struct {
	clients    map[chan Toast]bool
	broadcast  chan Toast
	register   chan chan Toast
	unregister chan chan Toast
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[chan Toast]bool),
		broadcast:  make(chan Toast, 256),
		register:   make(chan chan Toast),
		unregister: make(chan chan Toast),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

// Run delivers toasts until ctx is done, then closes every subscription.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for ch := range h.clients {
			delete(h.clients, ch)
			close(ch)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ch := <-h.register:
			h.mu.Lock()
			h.clients[ch] = true
			h.mu.Unlock()

		case ch := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
			h.mu.Unlock()

		case t := <-h.broadcast:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- t:
				default:
					h.log.Warn().Msg("subscriber too slow, toast dropped")
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Show(level Level, message string) {
	t := Toast{Level: level, Message: message, At: time.Now().UTC()}
	select {
	case h.broadcast <- t:
	default:
		h.log.Warn().Str("message", message).Msg("toast queue full")
	}
}

// Subscribe returns a channel of toasts and a function that ends the
// subscription. The channel is closed when the subscription ends or the
// hub stops.
func (h *Hub) Subscribe() (<-chan Toast, func()) {
	ch := make(chan Toast, subscriberBuffer)
	select {
	case h.register <- ch:
	case <-h.done:
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			select {
			case h.unregister <- ch:
			case <-h.done:
			}
		})
	}
}

// Subscribers reports how many subscriptions are open.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
