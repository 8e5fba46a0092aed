// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/MiyabiWorks/NovelEngine/internal/models"
	"github.com/MiyabiWorks/NovelEngine/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 本地单人引擎，表现层和服务端同源
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
)

// WSMessage 推送给表现层的消息信封
type WSMessage struct {
	Type      string      `json:"type"` // state, audio_cue
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// WSClient 一个已连接的表现层客户端
type WSClient struct {
	conn   *websocket.Conn
	send   chan []byte
	closed int32 // 原子操作标志，0=开启，1=关闭
}

// Close 安全关闭客户端连接
func (c *WSClient) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.conn.Close()
	}
}

// IsClosed 检查连接是否已关闭
func (c *WSClient) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// enqueue 非阻塞入队，队列满时丢弃（表现层总能从快照接口补齐）
func (c *WSClient) enqueue(data []byte) {
	if c.IsClosed() {
		return
	}
	select {
	case c.send <- data:
	default:
		utils.GetLogger().Warnf("WebSocket 客户端消息队列已满，消息被丢弃")
	}
}

// WSManager 管理所有表现层连接并向它们广播
type WSManager struct {
	mutex   sync.RWMutex
	clients map[*WSClient]bool
}

// NewWSManager 创建连接管理器
func NewWSManager() *WSManager {
	return &WSManager{
		clients: make(map[*WSClient]bool),
	}
}

func (m *WSManager) register(client *WSClient) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.clients[client] = true
}

func (m *WSManager) unregister(client *WSClient) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.clients, client)
}

// ClientCount 当前连接数
func (m *WSManager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Broadcast 向所有客户端广播一条消息
func (m *WSManager) Broadcast(msgType string, data interface{}) {
	message := WSMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		utils.GetLogger().Errorf("序列化 WebSocket 消息失败: %v", err)
		return
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.clients {
		client.enqueue(payload)
	}
}

// GameWebSocket 处理 /ws/game 连接：订阅会话状态并持续推送快照
func (h *Handler) GameWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Errorf("WebSocket 升级失败: %v", err)
		return
	}

	client := &WSClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.WSManager.register(client)

	// 状态订阅：每次会话状态变更推送一份快照
	updates := h.StateService.Subscribe()

	go func() {
		for snapshot := range updates {
			message := WSMessage{
				Type:      "state",
				Data:      snapshot,
				Timestamp: time.Now().Format(time.RFC3339),
			}
			if payload, err := json.Marshal(message); err == nil {
				client.enqueue(payload)
			}
		}
	}()

	go h.writePump(client)
	go h.readPump(client, updates)
}

// writePump 把排队的消息写给客户端，并定期发送 ping
func (h *Handler) writePump(client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取并丢弃客户端消息，用于探测连接断开
func (h *Handler) readPump(client *WSClient, updates chan models.GameState) {
	defer func() {
		h.StateService.Unsubscribe(updates)
		h.WSManager.unregister(client)
		client.Close()
	}()

	client.conn.SetReadLimit(1024)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
