package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/ingest"
)

const (
	// maxFrameSize bounds one inbound frame; sensor payloads are tiny and a
	// hostile peer must not be able to make the server buffer arbitrarily.
	maxFrameSize = 64 * 1024

	readWait  = 60 * time.Second
	writeWait = 10 * time.Second
	pingEvery = 30 * time.Second
)

// WSHandler upgrades device connections and runs one read loop per
// connection, feeding frames to the ingest supervisor in arrival order.
type WSHandler struct {
	upgrader websocket.Upgrader
	sup      *ingest.Supervisor
}

// NewWSHandler returns the WebSocket endpoint handler for the given supervisor.
func NewWSHandler(sup *ingest.Supervisor) *WSHandler {
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Devices connect directly, not from browsers; origin checks
			// do not apply to them.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		sup: sup,
	}
}

// wsConn adapts a *websocket.Conn to the supervisor's Conn interface. The
// mutex serializes application writes with the close path; control pings go
// through WriteControl, which gorilla allows concurrently.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Serve handles GET /ws: upgrade, register a session, then read frames until
// the connection dies. Frame processing happens on this goroutine only,
// which is what gives one connection its strict in-order processing while
// leaving other connections untouched.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	wc := &wsConn{conn: conn}
	handle := h.sup.OnConnect(wc)
	defer func() {
		h.sup.OnDisconnect(handle)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go pingLoop(conn, stopPing)

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: session %s read error: %v", handle.ID(), err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		h.sup.OnFrame(ctx, handle, raw)
	}
}

// pingLoop keeps the connection alive through NATs and detects dead peers.
// WriteControl is safe concurrently with the read loop's replies.
func pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
