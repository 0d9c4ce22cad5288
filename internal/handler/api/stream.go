package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	models "bandarscan/internal/domain/models"
	xlogger "bandarscan/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamHub pushes each fresh scan payload to connected websocket clients.
// Slow clients are dropped rather than buffered without bound.
type StreamHub struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func NewStreamHub(logger *xlogger.Logger) *StreamHub {
	return &StreamHub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// Broadcast fans the result out to every connected client.
func (h *StreamHub) Broadcast(result *models.ScanResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		h.logger.Error("stream marshal failed", xlogger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// Client is not keeping up.
			h.drop(conn)
		}
	}
}

// Clients reports the number of connected stream clients.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHub) drop(conn *websocket.Conn) {
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
		_ = conn.Close()
	}
}

// Stream upgrades the request and serves scan payloads until the client
// disconnects.
func (h *ScanHandler) Stream(c echo.Context) error {
	conn, err := h.hub.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ch := make(chan []byte, 4)
	h.hub.mu.Lock()
	h.hub.clients[conn] = ch
	h.hub.mu.Unlock()

	h.logger.Debug("stream client connected", xlogger.String("remote", conn.RemoteAddr().String()))

	// Send the newest known result right away so the client has something
	// to render before the next run.
	if last, ok := h.cache.Last(); ok {
		if payload, err := json.Marshal(last); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.TextMessage, payload)
		}
	}

	// Reader goroutine: the client never sends data, but reading surfaces
	// close frames and errors.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer func() {
		h.hub.mu.Lock()
		h.hub.drop(conn)
		h.hub.mu.Unlock()
	}()

	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}
