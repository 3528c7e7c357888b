package client

import (
	"context"
	"time"

	"github.com/palemoky/turn-party/internal/logger"
)

// tryReconnect 指数退避重连，成功后重新加入会话
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}
	defer c.reconnecting.Store(false)

	log := logger.WithPlayer(c.PlayerID())
	backoff := c.opts.ReconnectInterval
	for attempt := 1; attempt <= c.opts.ReconnectAttempts; attempt++ {
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, c.opts.ReconnectAttempts)
		}
		log.Infof("🔄 尝试重连 (%d/%d)...", attempt, c.opts.ReconnectAttempts)

		select {
		case <-c.done:
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxReconnectBackoff)

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		err := c.dial(ctx)
		cancel()
		if err != nil {
			log.Debugf("重连失败: %v", err)
			continue
		}

		c.rejoin()
		log.Info("✅ 重连成功")
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	log.Warn("❌ 重连失败，已达最大尝试次数")
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}

// rejoin 重新加入断线前的会话。游客重连后是新身份，不能恢复座位
func (c *Client) rejoin() {
	if c.opts.Token == "" {
		c.mu.Lock()
		clear(c.sessions)
		c.mu.Unlock()
		return
	}
	for _, id := range c.Sessions() {
		if err := c.JoinSession(id); err != nil {
			logger.WithSession(id).Warnf("重新加入会话失败: %v", err)
		}
	}
}
