package agentgraph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendy-design/deep.new/engine"
)

// wsTestServer accepts one WebSocket connection, registers it with bridge,
// and keeps reading (discarding) so the client's writes aren't blocked on a
// full read buffer.
func wsTestServer(t *testing.T, bridge *WSBridge) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		bridge.Register(conn)
		defer func() {
			bridge.Deregister(conn)
			conn.Close(websocket.StatusNormalClosure, "done")
		}()
		for {
			if _, _, err := conn.Read(r.Context()); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSBridge_BroadcastsEventBusEmissions(t *testing.T) {
	bus := engine.NewEventBus(nil)
	bridge := NewWSBridge(bus, "graph.node", nil)

	srv := wsTestServer(t, bridge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "bye") })

	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bus.Emit("graph.node", GraphEvent{NodeID: "n1", Status: "completed"})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"node_id":"n1"`)
	assert.Contains(t, string(data), `"status":"completed"`)
}

func TestWSBridge_DropsDeadClientsWithoutBlockingOthers(t *testing.T) {
	bus := engine.NewEventBus(nil)
	bridge := NewWSBridge(bus, "graph.node", nil)

	srv := wsTestServer(t, bridge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	dead, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	dead.Close(websocket.StatusNormalClosure, "bye")

	alive, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { alive.Close(websocket.StatusNormalClosure, "bye") })
	require.Eventually(t, func() bool { return bridge.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	bus.Emit("graph.node", GraphEvent{NodeID: "n2", Status: "completed"})

	_, data, err := alive.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"n2"`)

	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWSBridge_UnsubscribeStopsBroadcast(t *testing.T) {
	bus := engine.NewEventBus(nil)
	bridge := NewWSBridge(bus, "graph.node", nil)
	bridge.Unsubscribe(bus)

	srv := wsTestServer(t, bridge)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "bye") })
	require.Eventually(t, func() bool { return bridge.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	bus.Emit("graph.node", GraphEvent{NodeID: "n3", Status: "completed"})

	readCtx, readCancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer readCancel()
	_, _, err = conn.Read(readCtx)
	assert.Error(t, err)
}
