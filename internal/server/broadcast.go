package server

import (
	"sync"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/game/session"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

// Hub 在线玩家表，同时作为会话事件的接收者把事件推送给对应玩家
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// register 注册连接。同一玩家的旧连接被关闭，已加入的会话转交给新连接
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	old := h.clients[c.ID]
	h.clients[c.ID] = c
	h.mu.Unlock()

	if old != nil && old != c {
		for _, id := range old.Sessions() {
			c.joinSession(id)
		}
		old.Close()
	}
}

// unregister 注销连接，连接已被替换时返回 false
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.ID] != c {
		return false
	}
	delete(h.clients, c.ID)
	return true
}

// Client 获取玩家当前的连接
func (h *Hub) Client(playerID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[playerID]
}

// OnlineCount 在线人数
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 广播消息给所有在线玩家
func (h *Hub) Broadcast(msg *protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		c.SendMessage(msg)
	}
}

// CloseAll 关闭所有连接
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}

// SendTo 发送消息给指定玩家，离线玩家忽略
func (h *Hub) SendTo(ids []string, msg *protocol.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		if c := h.clients[id]; c != nil {
			c.SendMessage(msg)
		}
	}
}

// Publish 实现 session.EventSink
func (h *Hub) Publish(ev session.Event) {
	if msg := eventMessage(ev); msg != nil {
		h.SendTo(ev.Recipients, msg)
		codec.PutMessage(msg)
	}

	for id, view := range ev.Private {
		msg := codec.MustNewMessage(protocol.MsgPrivateView, protocol.PrivateViewPayload{
			SessionID: ev.SessionID,
			View:      view,
		})
		h.SendTo([]string{id}, msg)
		codec.PutMessage(msg)
	}
}

// eventMessage 把会话事件转换为协议消息
func eventMessage(ev session.Event) *protocol.Message {
	switch ev.Type {
	case session.EventStateUpdated:
		return codec.MustNewMessage(protocol.MsgStateUpdated, protocol.StateUpdatedPayload{
			SessionID: ev.SessionID,
			Snapshot:  ev.Snapshot,
		})
	case session.EventSessionFinished:
		return codec.MustNewMessage(protocol.MsgSessionFinished, protocol.SessionFinishedPayload{
			SessionID: ev.SessionID,
			Ranking:   ev.Ranking,
			Snapshot:  ev.Snapshot,
		})
	case session.EventTurnTimedOut:
		return codec.MustNewMessage(protocol.MsgTurnTimedOut, protocol.TurnTimedOutPayload{
			SessionID: ev.SessionID,
			PlayerID:  ev.PlayerID,
		})
	case session.EventActionRejected:
		return codec.MustNewMessage(protocol.MsgActionRejected, protocol.ActionRejectedPayload{
			SessionID: ev.SessionID,
			PlayerID:  ev.PlayerID,
			ActionID:  ev.ActionID,
			Code:      apperrors.CodeOf(ev.Err),
			Reason:    apperrors.ReasonOf(ev.Err),
		})
	case session.EventPlayerJoined, session.EventPlayerLeft:
		typ := protocol.MsgPlayerJoined
		if ev.Type == session.EventPlayerLeft {
			typ = protocol.MsgPlayerLeft
		}
		return codec.MustNewMessage(typ, protocol.PlayerEventPayload{
			SessionID:  ev.SessionID,
			PlayerID:   ev.PlayerID,
			PlayerName: playerName(ev.Snapshot, ev.PlayerID),
			Snapshot:   ev.Snapshot,
		})
	default:
		return nil
	}
}

func playerName(snap session.Snapshot, id string) string {
	for _, p := range snap.Players {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}
