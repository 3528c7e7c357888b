package server

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小，画作快照引用可能较长
	maxMessageSize = 16 * 1024

	// 发送缓冲区
	sendBuffer = 256

	// 超速次数达到该值后断开连接
	maxRateWarnings = 5
)

// Client 代表一个连接的玩家
type Client struct {
	ID    string // 玩家 ID，来自令牌或游客 ID
	Name  string // 玩家昵称
	IP    string // 客户端 IP 地址
	Guest bool

	format codec.Format
	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu       sync.RWMutex
	closed   bool
	sessions map[string]struct{} // 已加入的会话
}

func newClient(s *Server, conn *websocket.Conn, format codec.Format) *Client {
	return &Client{
		format:   format,
		server:   s,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		sessions: make(map[string]struct{}),
	}
}

// ReadPump 从 WebSocket 读取消息，返回时连接已断开
func (c *Client) ReadPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	log := logger.WithPlayer(c.ID)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("读取错误: %v", err)
			}
			return
		}

		allowed, warning := c.server.messageLimiter.AllowMessage(c.ID)
		if !allowed {
			log.Warnf("⚠️ 客户端 %s (IP: %s) 消息过于频繁", c.Name, c.IP)
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "消息发送过于频繁"))
			if c.server.messageLimiter.WarningCount(c.ID) > maxRateWarnings {
				log.Warnf("🚫 客户端 %s 因多次超速被断开连接", c.Name)
				return
			}
			continue
		}
		if warning {
			c.SendMessage(codec.NewErrorMessageWithText(protocol.ErrCodeRateLimit, "请求过于频繁，请放慢速度"))
		}

		msg, err := codec.Decode(data, c.format)
		if err != nil {
			log.Debugf("消息解析错误: %v", err)
			c.SendMessage(codec.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			continue
		}
		c.server.handler.Handle(c, msg)
		codec.PutMessage(msg)
	}
}

// WritePump 向 WebSocket 写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frame := websocket.TextMessage
	if c.format == codec.FormatProto {
		frame = websocket.BinaryMessage
	}

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(frame, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage 按客户端的编码格式发送消息，不阻塞
func (c *Client) SendMessage(msg *protocol.Message) {
	if msg == nil {
		return
	}
	data, err := codec.Encode(msg, c.format)
	if err != nil {
		logger.WithPlayer(c.ID).Errorf("消息编码错误: %v", err)
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		// 发送缓冲区已满，异步关闭，避免在持有读锁时获取写锁
		logger.WithPlayer(c.ID).Warn("⚠️ 发送缓冲区已满，关闭连接")
		go c.Close()
	}
}

// sendError 把错误转换为错误码发送给客户端
func (c *Client) sendError(code int) {
	c.SendMessage(codec.NewErrorMessage(code))
}

// Close 关闭发送通道，WritePump 随后关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) joinSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[id] = struct{}{}
}

func (c *Client) leaveSession(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// Sessions 已加入的会话 ID
func (c *Client) Sessions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.sessions))
}

// handleDisconnect 连接断开：离开所有会话。进行中的会话只标记离线，重新加入即可恢复
func (c *Client) handleDisconnect() {
	if !c.server.hub.unregister(c) {
		// 同一玩家已在新连接上登录，会话归新连接所有
		return
	}
	c.server.messageLimiter.RemoveClient(c.ID)

	for _, id := range c.Sessions() {
		s := c.server.registry.Get(id)
		if s == nil {
			continue
		}
		if err := s.Leave(c.ID); err != nil {
			logger.WithSession(id).Debugf("断线离开会话: %v", err)
		}
	}
	c.Close()
	logger.WithPlayer(c.ID).Infof("❌ 玩家 %s 已断开", c.Name)
}
