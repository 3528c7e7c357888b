package client

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

// readPump 从服务器读取消息，返回时关闭 stop 并决定重连还是关闭
func (c *Client) readPump(conn *websocket.Conn, stop chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		close(stop)
		_ = conn.Close()

		if c.opts.AutoReconnect && !c.isClosed() {
			go c.tryReconnect()
			return
		}
		c.Close()
		if c.OnClose != nil {
			c.OnClose()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithPlayer(c.PlayerID()).Warnf("读取错误: %v", err)
			}
			return
		}

		msg, err := codec.Decode(data, c.opts.Format)
		if err != nil {
			logger.WithPlayer(c.PlayerID()).Debugf("消息解析错误: %v", err)
			continue
		}

		c.observe(msg)
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}

		select {
		case c.receive <- msg:
		default:
			logger.WithPlayer(c.PlayerID()).Warnf("⚠️ 接收缓冲区已满，丢弃消息 %s", msg.Type)
		}
	}
}

// writePump 向服务器写入消息，未发出的消息留给下一个连接
func (c *Client) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	frame := websocket.TextMessage
	if c.opts.Format == codec.FormatProto {
		frame = websocket.BinaryMessage
	}

	for {
		select {
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(frame, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-stop:
			return
		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
