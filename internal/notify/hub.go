package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const subscriberQueue = 16

// Hub streams notifications to websocket subscribers, keyed by user id.
// Slow subscribers lose messages rather than blocking the sender.
type Hub struct {
	log *zap.Logger

	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		log: logger.Named("hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[string]map[chan []byte]struct{}{},
	}
}

func (h *Hub) Notify(_ context.Context, n Notification) {
	b, err := json.Marshal(n)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[n.UserID] {
		select {
		case ch <- b:
		default:
			h.log.Debug("dropping notification for slow subscriber", zap.String("user_id", n.UserID))
		}
	}
}

func (h *Hub) subscribe(userID string) chan []byte {
	ch := make(chan []byte, subscriberQueue)
	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan []byte]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(userID string, ch chan []byte) {
	h.mu.Lock()
	delete(h.subs[userID], ch)
	if len(h.subs[userID]) == 0 {
		delete(h.subs, userID)
	}
	h.mu.Unlock()
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Serve upgrades the request and streams userID's notifications until the
// client disconnects.
func (h *Hub) Serve(rw http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := h.subscribe(userID)
	defer h.unsubscribe(userID, ch)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader loop only watches for close; clients do not send anything.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case b := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}
