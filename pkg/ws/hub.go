package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"SwasthyaWatch/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Message 推送给前端的消息
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Hub 管理仪表盘的 WebSocket 连接，按用户路由或全局广播
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*conn]bool // userID -> connections
}

type conn struct {
	ws   *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*conn]bool)}
}

// Serve 升级连接并泵送消息，直到对端断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &conn{ws: wsConn, send: make(chan []byte, 64)}

	h.mu.Lock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*conn]bool)
	}
	h.conns[userID][c] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns[userID], c)
		if len(h.conns[userID]) == 0 {
			delete(h.conns, userID)
		}
		h.mu.Unlock()
		wsConn.Close()
	}()

	go c.writePump()

	// 读协程只用于感知断开
	wsConn.SetReadLimit(4096)
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			close(c.send)
			return
		}
	}
}

func (c *conn) writePump() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendTo 发送给某个用户的全部连接
func (h *Hub) SendTo(userID string, msgType string, data interface{}) {
	b, err := json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}
	h.mu.RLock()
	for c := range h.conns[userID] {
		select {
		case c.send <- b:
		default: // 慢连接丢弃
		}
	}
	h.mu.RUnlock()
}

// Broadcast 全局广播
func (h *Hub) Broadcast(msgType string, data interface{}) {
	b, err := json.Marshal(Message{Type: msgType, Data: data, Timestamp: time.Now().Unix()})
	if err != nil {
		return
	}
	h.mu.RLock()
	for _, set := range h.conns {
		for c := range set {
			select {
			case c.send <- b:
			default:
			}
		}
	}
	h.mu.RUnlock()
}
