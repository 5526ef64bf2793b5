package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sawpanic/tradingengine/internal/model"
)

// broadcaster fans out emitted DecisionPackets to every connected
// /stream/decisions client. Delivery is best effort: a slow reader
// is dropped rather than allowed to back-pressure the broadcast, matching
// the single-writer-per-connection rule the rest of the engine uses for
// its other concurrency.
type broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan model.DecisionPacket
	upgrader websocket.Upgrader
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		clients: make(map[*websocket.Conn]chan model.DecisionPacket),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and pumps packets to it until the
// client disconnects or a write stalls.
func (b *broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ch := make(chan model.DecisionPacket, 16)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		close(ch)
		conn.Close()
	}()

	// Drain incoming control frames (pings/close) on their own goroutine so
	// a silent client doesn't wedge the write loop below.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for packet := range ch {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(packet); err != nil {
			return
		}
	}
}

// Broadcast sends packet to every connected client, dropping it for any
// client whose send buffer is full instead of blocking the caller.
func (b *broadcaster) Broadcast(packet model.DecisionPacket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.clients {
		select {
		case ch <- packet:
		default:
		}
	}
}
