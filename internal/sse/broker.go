// Package sse implements a Server-Sent Events broker for live editor and
// document updates.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast. A non-empty Session limits
// delivery to clients subscribed to that session or to everything.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Data    any    `json:"data"`
}

type documentEventReq struct {
	kind string
	path string
}

type subscription struct {
	ch      chan []byte
	session string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + catalog throttle timestamp). Public methods communicate with this loop
// through channels, so no mutexes are required.
type Broker struct {
	catalogMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	documentCh    chan documentEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given catalog throttle interval.
func NewBroker(catalogThrottle time.Duration) *Broker {
	if catalogThrottle <= 0 {
		catalogThrottle = 2 * time.Second
	}

	b := &Broker{
		catalogMin:    catalogThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		documentCh:    make(chan documentEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]string)
	var lastCatalog time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch, session := range clients {
			if session != "" && event.Session != "" && session != event.Session {
				continue
			}
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = sub.session

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.documentCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: "document.created", Data: data})
			case "updated":
				broadcast(Event{Type: "document.updated", Data: data})
			case "deleted":
				broadcast(Event{Type: "document.deleted", Data: data})
			}

			now := time.Now()
			if now.Sub(lastCatalog) >= b.catalogMin {
				lastCatalog = now
				broadcast(Event{Type: "catalog.updated", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client receiving every event and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeSession("")
}

// SubscribeSession adds a client that only receives events for session
// plus events not tied to any session.
func (b *Broker) SubscribeSession(session string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, session: session}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocumentEvent publishes a stored document change and a throttled
// catalog.updated event.
func (b *Broker) PublishDocumentEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.documentCh <- documentEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// session query parameter narrows the stream to one editing session.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.SubscribeSession(r.URL.Query().Get("session"))
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

// DecodeFrame splits a frame produced by the broker into its event type
// and JSON payload.
func DecodeFrame(raw []byte) (string, json.RawMessage, bool) {
	var typ string
	var data []byte
	for _, line := range bytes.Split(raw, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("event: ")):
			typ = string(line[len("event: "):])
		case bytes.HasPrefix(line, []byte("data: ")):
			data = line[len("data: "):]
		}
	}
	if typ == "" || !json.Valid(data) {
		return "", nil, false
	}
	return typ, json.RawMessage(data), true
}
