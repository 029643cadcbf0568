package agentgraph

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/trendy-design/deep.new/engine"
)

// GraphEvent is the wire shape pushed to a subscriber for every node
// transition the graph executor emits on its engine.EventBus channel.
type GraphEvent struct {
	NodeID string `json:"node_id"`
	Status string `json:"status"`
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WSBridge relays one engine.EventBus channel to a set of WebSocket clients,
// the network-facing counterpart to agent/streaming.WebSocketStreamConnection
// adapted for the graph executor's synchronous, retained-state bus instead
// of the teacher's bidirectional reconnecting stream: a bridge fans one
// channel's emissions out to many read-only viewers rather than adapting a
// single duplex connection.
type WSBridge struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  *zap.Logger
	subID   string
}

// NewWSBridge subscribes to channel on bus and starts relaying every
// emission, JSON-encoded, to whichever clients are currently registered.
func NewWSBridge(bus *engine.EventBus, channel string, logger *zap.Logger) *WSBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &WSBridge{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  logger.With(zap.String("component", "ws_bridge"), zap.String("channel", channel)),
	}
	b.subID = bus.On(channel, b.broadcast)
	return b
}

// Unsubscribe detaches the bridge from its event bus channel. Registered
// clients are left connected; callers are expected to Close them separately.
func (b *WSBridge) Unsubscribe(bus *engine.EventBus) {
	bus.Off(b.subID)
}

// Register adds a client connection to the broadcast set. Accept a conn
// from an http.Handler via websocket.Accept before calling this.
func (b *WSBridge) Register(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[conn] = struct{}{}
}

// Deregister removes a client connection from the broadcast set without
// closing it; callers still own the connection's lifecycle.
func (b *WSBridge) Deregister(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, conn)
}

// ClientCount reports how many clients are currently registered.
func (b *WSBridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// broadcast is the engine.EventBus handler: it JSON-encodes payload once and
// writes it to every registered client, dropping (and deregistering) any
// client whose write fails rather than letting one dead connection block the
// rest, mirroring EventBus.Emit's own panic-isolation-per-handler stance.
func (b *WSBridge) broadcast(payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("marshal graph event", zap.Error(err))
		return
	}

	b.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.Unlock()

	ctx := context.Background()
	for _, c := range clients {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			b.logger.Warn("drop dead client", zap.Error(err))
			b.Deregister(c)
		}
	}
}
