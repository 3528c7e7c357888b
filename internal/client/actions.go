package client

import (
	"time"

	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

// --- 便捷方法 ---

// CreateSession 创建会话
func (c *Client) CreateSession(gameType string) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgCreateSession, protocol.CreateSessionPayload{
		GameType: gameType,
	}))
}

// JoinSession 加入会话，断线后再次加入即可恢复座位
func (c *Client) JoinSession(sessionID string) error {
	return c.sendRef(protocol.MsgJoinSession, sessionID)
}

// StartSession 开始游戏
func (c *Client) StartSession(sessionID string) error {
	return c.sendRef(protocol.MsgStartSession, sessionID)
}

// LeaveSession 离开会话
func (c *Client) LeaveSession(sessionID string) error {
	c.trackSession(sessionID, false)
	return c.sendRef(protocol.MsgLeaveSession, sessionID)
}

// EndSession 房主结束游戏
func (c *Client) EndSession(sessionID string) error {
	return c.sendRef(protocol.MsgEndSession, sessionID)
}

// GetState 拉取会话状态
func (c *Client) GetState(sessionID string) error {
	return c.sendRef(protocol.MsgGetState, sessionID)
}

// Submit 提交动作
func (c *Client) Submit(sessionID string, action protocol.ActionInfo) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgSubmitAction, protocol.SubmitActionPayload{
		SessionID: sessionID,
		Action:    action,
	}))
}

// GetStats 获取个人统计
func (c *Client) GetStats() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetStats, nil))
}

// GetLeaderboard 获取排行榜，gameType 为空时获取总榜
func (c *Client) GetLeaderboard(gameType string, limit int) error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgGetLeaderboard, protocol.GetLeaderboardPayload{
		GameType: gameType,
		Limit:    limit,
	}))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(codec.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}

func (c *Client) sendRef(typ protocol.MessageType, sessionID string) error {
	return c.SendMessage(codec.MustNewMessage(typ, protocol.SessionRefPayload{SessionID: sessionID}))
}
