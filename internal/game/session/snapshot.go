package session

import (
	"fmt"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/game/rule"
)

// PlayerView 快照中的玩家
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// Snapshot 会话的只读快照，游戏数据为公开视图
type Snapshot struct {
	SessionID       string          `json:"session_id"`
	GameType        rule.GameType   `json:"game_type"`
	State           string          `json:"state"`
	CreatorID       string          `json:"creator_id"`
	Players         []PlayerView    `json:"players"`
	CurrentTurn     int             `json:"current_turn"`
	CurrentPlayerID string          `json:"current_player_id,omitempty"`
	TurnSeq         uint64          `json:"turn_seq"`
	Deadline        *time.Time      `json:"deadline,omitempty"`
	Data            any             `json:"data,omitempty"`
	Ranking         []rule.Standing `json:"ranking,omitempty"`
	HistoryLen      int             `json:"history_len"`
	Version         uint64          `json:"version"`
	Flagged         bool            `json:"flagged,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:   s.id,
		GameType:    s.gameType,
		State:       s.state.String(),
		CreatorID:   s.creatorID,
		Players:     make([]PlayerView, len(s.players)),
		CurrentTurn: s.current,
		TurnSeq:     s.turnSeq,
		HistoryLen:  len(s.history),
		Version:     s.version,
		Flagged:     s.flagged != "",
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.lastActivity,
	}
	for i, p := range s.players {
		snap.Players[i] = PlayerView{ID: p.ID, Name: p.Name, Score: p.Score, Connected: p.Connected}
	}
	if s.state == StateActive && s.current < len(s.players) {
		snap.CurrentPlayerID = s.players[s.current].ID
	}
	if !s.deadline.IsZero() {
		d := s.deadline
		snap.Deadline = &d
	}
	if s.data != nil {
		snap.Data = rule.PublicView(s.data)
	}
	if len(s.ranking) > 0 {
		snap.Ranking = append([]rule.Standing(nil), s.ranking...)
	}
	return snap
}

// Snapshot 当前状态快照
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// PrivateView 某位玩家的专属视图
func (s *Session) PrivateView(playerID string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat := s.seatOf(playerID)
	if seat < 0 {
		return nil, apperrors.ErrPlayerNotFound
	}
	if s.data == nil {
		return nil, apperrors.ErrNotActive
	}
	return rule.PrivateView(s.data, seat, s.current), nil
}

// History 已执行动作的副本
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.history...)
}

// Replay 从开局数据重新执行全部历史，返回重建的游戏数据
func (s *Session) Replay() (rule.Data, error) {
	s.mu.Lock()
	roster := append([]rule.Player(nil), s.roster...)
	history := append([]Entry(nil), s.history...)
	seed := s.seed
	s.mu.Unlock()

	if roster == nil {
		return nil, apperrors.ErrNotActive
	}
	data, err := s.rules.Initialize(roster, seed)
	if err != nil {
		return nil, fmt.Errorf("回放初始化失败: %w", err)
	}
	for _, e := range history {
		if err := s.rules.Validate(data, e.Move); err != nil {
			return nil, fmt.Errorf("%w: 回放第 %d 步校验失败: %v", apperrors.ErrFatalInconsistency, e.Seq, err)
		}
		res, err := s.rules.Apply(data, e.Move)
		if err != nil {
			return nil, fmt.Errorf("%w: 回放第 %d 步执行失败: %v", apperrors.ErrFatalInconsistency, e.Seq, err)
		}
		data = res.Data
	}
	return data, nil
}

// Data 当前游戏数据的副本
func (s *Session) Data() rule.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil
	}
	return s.data.Clone()
}
