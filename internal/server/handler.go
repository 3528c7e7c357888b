package server

import (
	"context"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/game/registry"
	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/game/session"
	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
	"github.com/palemoky/turn-party/internal/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
	leaderboardTimeout      = 3 * time.Second
)

// Leaderboard 排行榜查询
type Leaderboard interface {
	Stats(ctx context.Context, playerID string) (*storage.PlayerStats, error)
	Top(ctx context.Context, gameType rule.GameType, limit int) ([]storage.LeaderboardEntry, error)
	Rank(ctx context.Context, gameType rule.GameType, playerID string) (int64, error)
}

// Handler 消息处理器
type Handler struct {
	registry *registry.Registry
	board    Leaderboard
	clock    clock.Clock
}

// NewHandler 创建处理器，board 为 nil 时排行榜请求返回不可用
func NewHandler(reg *registry.Registry, board Leaderboard, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Handler{registry: reg, board: board, clock: clk}
}

// Handle 处理消息
func (h *Handler) Handle(c *Client, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			c.sendError(protocol.ErrCodeUnknown)
		}
	}()

	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(c, msg)

	// 会话操作
	case protocol.MsgCreateSession:
		h.handleCreateSession(c, msg)
	case protocol.MsgJoinSession:
		h.handleJoinSession(c, msg)
	case protocol.MsgStartSession:
		h.withSession(c, msg, func(s *session.Session) error { return s.Start(c.ID) })
	case protocol.MsgLeaveSession:
		h.handleLeaveSession(c, msg)
	case protocol.MsgEndSession:
		h.withSession(c, msg, func(s *session.Session) error { return s.End(c.ID) })

	// 游戏操作
	case protocol.MsgSubmitAction:
		h.handleSubmitAction(c, msg)
	case protocol.MsgGetState:
		h.handleGetState(c, msg)

	// 排行榜操作
	case protocol.MsgGetStats:
		h.handleGetStats(c)
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(c, msg)

	default:
		logger.WithPlayer(c.ID).Warnf("⚠️ 未知消息类型: '%s' (Payload长度=%d bytes)", msg.Type, len(msg.Payload))
		c.sendError(protocol.ErrCodeInvalidMsg)
	}
}

func (h *Handler) handlePing(c *Client, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		c.sendError(protocol.ErrCodeInvalidMsg)
		return
	}
	c.SendMessage(codec.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: h.clock.Now().UnixMilli(),
	}))
}

func (h *Handler) handleCreateSession(c *Client, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.CreateSessionPayload](msg)
	if err != nil {
		c.sendError(protocol.ErrCodeInvalidMsg)
		return
	}

	s, err := h.registry.Create(rule.GameType(payload.GameType), c.ID, c.Name)
	if err != nil {
		h.reject(c, err)
		return
	}
	c.joinSession(s.ID())
	c.SendMessage(codec.MustNewMessage(protocol.MsgSessionCreated, protocol.SessionCreatedPayload{
		SessionID: s.ID(),
		GameType:  string(s.GameType()),
		Snapshot:  s.Snapshot(),
	}))
}

func (h *Handler) handleJoinSession(c *Client, msg *protocol.Message) {
	s, ok := h.lookup(c, msg)
	if !ok {
		return
	}
	if err := s.Join(c.ID, c.Name); err != nil {
		h.reject(c, err)
		return
	}
	c.joinSession(s.ID())
	h.sendState(c, s)
}

func (h *Handler) handleLeaveSession(c *Client, msg *protocol.Message) {
	s, ok := h.lookup(c, msg)
	if !ok {
		return
	}
	c.leaveSession(s.ID())
	if err := s.Leave(c.ID); err != nil {
		h.reject(c, err)
	}
}

func (h *Handler) handleSubmitAction(c *Client, msg *protocol.Message) {
	payload, err := codec.ParsePayload[protocol.SubmitActionPayload](msg)
	if err != nil {
		c.sendError(protocol.ErrCodeInvalidMsg)
		return
	}
	s, err := h.registry.Lookup(payload.SessionID)
	if err != nil {
		h.reject(c, err)
		return
	}
	// 拒绝原因已通过 action_rejected 事件发给发起者
	_, _ = s.SubmitAction(c.ID, toAction(payload.Action))
}

func (h *Handler) handleGetState(c *Client, msg *protocol.Message) {
	if s, ok := h.lookup(c, msg); ok {
		h.sendState(c, s)
	}
}

func (h *Handler) sendState(c *Client, s *session.Session) {
	payload := protocol.StateResultPayload{
		SessionID: s.ID(),
		Snapshot:  s.Snapshot(),
	}
	if view, err := s.PrivateView(c.ID); err == nil {
		payload.View = view
	}
	c.SendMessage(codec.MustNewMessage(protocol.MsgStateResult, payload))
}

func (h *Handler) handleGetStats(c *Client) {
	if h.board == nil {
		c.sendError(protocol.ErrCodeStorageUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()

	stats, err := h.board.Stats(ctx, c.ID)
	if err != nil {
		logger.WithPlayer(c.ID).Warnf("获取统计失败: %v", err)
		c.sendError(protocol.ErrCodeStorageUnavailable)
		return
	}
	if stats == nil {
		// 没有统计数据，返回空数据
		c.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
			PlayerID:   c.ID,
			PlayerName: c.Name,
			Rank:       -1,
		}))
		return
	}

	rank, _ := h.board.Rank(ctx, "", c.ID)
	winRate := 0.0
	if stats.Games > 0 {
		winRate = float64(stats.Wins) / float64(stats.Games) * 100
	}
	c.SendMessage(codec.MustNewMessage(protocol.MsgStatsResult, protocol.StatsResultPayload{
		PlayerID:      stats.PlayerID,
		PlayerName:    stats.Name,
		Games:         stats.Games,
		Wins:          stats.Wins,
		WinRate:       winRate,
		Points:        stats.Points,
		BestScore:     stats.BestScore,
		Rank:          int(rank),
		CurrentStreak: stats.CurrentStreak,
		MaxWinStreak:  stats.MaxWinStreak,
	}))
}

func (h *Handler) handleGetLeaderboard(c *Client, msg *protocol.Message) {
	if h.board == nil {
		c.sendError(protocol.ErrCodeStorageUnavailable)
		return
	}
	payload, err := codec.ParsePayload[protocol.GetLeaderboardPayload](msg)
	if err != nil {
		payload = &protocol.GetLeaderboardPayload{}
	}
	if payload.Limit <= 0 || payload.Limit > maxLeaderboardLimit {
		payload.Limit = defaultLeaderboardLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaderboardTimeout)
	defer cancel()
	entries, err := h.board.Top(ctx, rule.GameType(payload.GameType), payload.Limit)
	if err != nil {
		logger.WithPlayer(c.ID).Warnf("获取排行榜失败: %v", err)
		c.sendError(protocol.ErrCodeStorageUnavailable)
		return
	}
	c.SendMessage(codec.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		GameType: payload.GameType,
		Entries:  entries,
	}))
}

// withSession 解析会话 ID 并执行操作，失败时回复错误
func (h *Handler) withSession(c *Client, msg *protocol.Message, op func(*session.Session) error) {
	s, ok := h.lookup(c, msg)
	if !ok {
		return
	}
	if err := op(s); err != nil {
		h.reject(c, err)
	}
}

func (h *Handler) lookup(c *Client, msg *protocol.Message) (*session.Session, bool) {
	payload, err := codec.ParsePayload[protocol.SessionRefPayload](msg)
	if err != nil {
		c.sendError(protocol.ErrCodeInvalidMsg)
		return nil, false
	}
	s, err := h.registry.Lookup(payload.SessionID)
	if err != nil {
		h.reject(c, err)
		return nil, false
	}
	return s, true
}

// reject 回复错误码，非游戏错误记录日志
func (h *Handler) reject(c *Client, err error) {
	if apperrors.As(err) == nil {
		logger.WithPlayer(c.ID).Errorf("❌ 处理请求失败: %v", err)
	}
	c.sendError(apperrors.CodeOf(err))
}

// toAction 协议动作转换为规则动作
func toAction(a protocol.ActionInfo) rule.Action {
	return rule.Action{
		ID:        a.ID,
		Type:      rule.ActionType(a.Type),
		TurnSeq:   a.TurnSeq,
		Index:     a.Index,
		Option:    a.Option,
		Text:      a.Text,
		Drawing:   a.Drawing,
		Direction: rule.Direction(a.Direction),
	}
}
