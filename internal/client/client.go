// Package client 是连接游戏服务器的 WebSocket 客户端，供命令行工具和集成测试使用。
package client

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 10 * time.Second
	bufferSize       = 256

	defaultReconnectAttempts = 5
	defaultReconnectInterval = 2 * time.Second
	maxReconnectBackoff      = 30 * time.Second
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Options 客户端参数
type Options struct {
	Token  string       // JWT，为空时以游客身份连接
	Name   string       // 请求的昵称，令牌中有昵称时以令牌为准
	Format codec.Format // 线路编码

	// AutoReconnect 断线后自动重连。持有令牌时重连后会重新加入已加入的会话
	AutoReconnect     bool
	ReconnectAttempts int
	ReconnectInterval time.Duration
}

// Client WebSocket 客户端
type Client struct {
	serverURL string
	opts      Options
	dialer    websocket.Dialer

	send    chan []byte
	receive chan *protocol.Message
	done    chan struct{}

	// 回调
	OnMessage      func(*protocol.Message) // 消息回调，在读协程中调用
	OnClose        func()                  // 连接最终关闭
	OnReconnecting func(attempt, total int) // 开始第 attempt 次重连
	OnReconnect    func()                  // 重连成功

	mu         sync.RWMutex
	conn       *websocket.Conn
	closed     bool
	playerID   string
	playerName string
	sessions   map[string]struct{}

	latency      atomic.Int64
	reconnecting atomic.Bool
}

// New 创建客户端，serverURL 形如 ws://host:port/ws
func New(serverURL string, opts Options) *Client {
	if opts.ReconnectAttempts <= 0 {
		opts.ReconnectAttempts = defaultReconnectAttempts
	}
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = defaultReconnectInterval
	}
	return &Client{
		serverURL: serverURL,
		opts:      opts,
		dialer:    websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		send:      make(chan []byte, bufferSize),
		receive:   make(chan *protocol.Message, bufferSize),
		done:      make(chan struct{}),
		sessions:  make(map[string]struct{}),
	}
}

// Connect 连接服务器
func (c *Client) Connect(ctx context.Context) error {
	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	u, err := c.endpoint()
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	conn, resp, err := c.dialer.DialContext(ctx, u, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return &HandshakeError{StatusCode: resp.StatusCode, Err: err}
		}
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.mu.Unlock()

	stop := make(chan struct{})
	go c.readPump(conn, stop)
	go c.writePump(conn, stop)
	return nil
}

// endpoint 拼接昵称和编码参数
func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if c.opts.Name != "" {
		q.Set("name", c.opts.Name)
	}
	if c.opts.Format == codec.FormatProto {
		q.Set("codec", codec.FormatProto.String())
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// HandshakeError 服务器拒绝升级连接
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("握手被拒绝 (HTTP %d): %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// SendMessage 发送消息，不阻塞
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	data, err := codec.Encode(msg, c.opts.Format)
	if err != nil {
		return err
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Receive 阻塞接收下一条消息
func (c *Client) Receive(ctx context.Context) (*protocol.Message, error) {
	select {
	case msg := <-c.receive:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// ReceiveWithTimeout 带超时接收消息
func (c *Client) ReceiveWithTimeout(timeout time.Duration) (*protocol.Message, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return c.Receive(ctx)
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// Done 连接最终关闭时关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}

// PlayerID 服务器分配的玩家 ID
func (c *Client) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// PlayerName 服务器确认的昵称
func (c *Client) PlayerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerName
}

// Latency 最近一次 ping 的往返延迟
func (c *Client) Latency() time.Duration {
	return time.Duration(c.latency.Load()) * time.Millisecond
}

// Sessions 已加入的会话 ID
func (c *Client) Sessions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.sessions))
}

func (c *Client) trackSession(id string, joined bool) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if joined {
		c.sessions[id] = struct{}{}
	} else {
		delete(c.sessions, id)
	}
}

// observe 从服务器消息中更新本地状态
func (c *Client) observe(msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgConnected:
		if p, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
			c.mu.Lock()
			c.playerID = p.PlayerID
			c.playerName = p.PlayerName
			c.mu.Unlock()
		}
	case protocol.MsgPong:
		if p, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
			c.latency.Store(time.Now().UnixMilli() - p.ClientTimestamp)
		}
	case protocol.MsgSessionCreated, protocol.MsgStateResult:
		if p, err := codec.ParsePayload[protocol.SessionRefPayload](msg); err == nil {
			c.trackSession(p.SessionID, true)
		}
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
