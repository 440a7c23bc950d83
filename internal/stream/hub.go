// Package stream fans scheduled forecasts out to live subscribers.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stock-forecaster/internal/models"
)

// AllSymbols subscribes to every symbol.
const AllSymbols = ""

// Event is one forecast published to the hub.
type Event struct {
	Symbol   string               `json:"symbol"`
	At       time.Time            `json:"at"`
	Forecast models.PredictionSet `json:"forecast"`
}

// HubConfig holds configuration for the Hub.
type HubConfig struct {
	// BufferSize is the size of the inbound event buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           256,
		SubscriberBufferSize: 16,
	}
}

// Subscriber receives events for one symbol, or for all of them.
type Subscriber struct {
	ID        string
	Symbol    string
	CreatedAt time.Time

	ch      chan Event
	dropped atomic.Uint64
}

// Events returns the subscriber's channel. It is closed on Unsubscribe or
// when the hub stops.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// Dropped returns how many events were skipped because the subscriber's
// buffer was full.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Hub distributes events from publishers to subscribers. Slow subscribers
// lose events instead of blocking the others.
type Hub struct {
	config HubConfig
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	started     bool
	stopped     bool

	events chan Event
	done   chan struct{}

	received  atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a hub with the default configuration.
func NewHub(logger zerolog.Logger) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), logger)
}

// NewHubWithConfig creates a hub with a custom configuration.
func NewHubWithConfig(config HubConfig, logger zerolog.Logger) *Hub {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultHubConfig().BufferSize
	}
	if config.SubscriberBufferSize <= 0 {
		config.SubscriberBufferSize = DefaultHubConfig().SubscriberBufferSize
	}
	return &Hub{
		config:      config,
		logger:      logger.With().Str("component", "stream").Logger(),
		subscribers: make(map[string][]*Subscriber),
		events:      make(chan Event, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// Start begins distributing events until ctx is cancelled or Stop is called.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started || h.stopped {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	go h.broadcastLoop(ctx)
}

func (h *Hub) broadcastLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return
		case <-h.done:
			return
		case ev := <-h.events:
			h.received.Add(1)
			h.broadcast(ev)
		}
	}
}

// Stop stops the hub and closes every subscriber channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	close(h.done)

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.ch)
		}
		delete(h.subscribers, symbol)
	}
}

// Subscribe registers a subscriber for symbol, or AllSymbols. Subscribing
// to a stopped hub yields a closed channel.
func (h *Hub) Subscribe(symbol string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		Symbol:    models.NormalizeSymbol(symbol),
		CreatedAt: time.Now(),
		ch:        make(chan Event, h.config.SubscriberBufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		close(sub.ch)
		return sub
	}
	h.subscribers[sub.Symbol] = append(h.subscribers[sub.Symbol], sub)
	h.logger.Debug().Str("subscriber", sub.ID).Str("symbol", sub.Symbol).Msg("Subscribed")
	return sub
}

// Unsubscribe removes sub and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[sub.Symbol]
	for i, s := range subs {
		if s == sub {
			close(s.ch)
			h.subscribers[sub.Symbol] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subscribers[sub.Symbol]) == 0 {
		delete(h.subscribers, sub.Symbol)
	}
}

// Publish queues a forecast for distribution. It never blocks: when the
// inbound buffer is full the event is dropped and false returned.
func (h *Hub) Publish(symbol string, set models.PredictionSet) bool {
	ev := Event{Symbol: models.NormalizeSymbol(symbol), At: time.Now(), Forecast: set}
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// broadcast holds the read lock while sending so Stop and Unsubscribe
// cannot close a channel mid-send.
func (h *Hub) broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, key := range []string{ev.Symbol, AllSymbols} {
		for _, sub := range h.subscribers[key] {
			select {
			case sub.ch <- ev:
				h.delivered.Add(1)
			default:
				sub.dropped.Add(1)
				h.dropped.Add(1)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// HubMetrics contains hub counters.
type HubMetrics struct {
	Received    uint64 `json:"received"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
	Subscribers int    `json:"subscribers"`
}

// Metrics returns the hub's counters.
func (h *Hub) Metrics() HubMetrics {
	return HubMetrics{
		Received:    h.received.Load(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
		Subscribers: h.SubscriberCount(),
	}
}
