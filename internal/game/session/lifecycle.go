package session

import (
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/game/rule"
)

// Join 加入会话。离线玩家重新加入进行中的会话视为重连；在线玩家重复加入不做任何事。
func (s *Session) Join(playerID, name string) error {
	s.mu.Lock()
	events, err := s.joinLocked(playerID, name)
	s.unlockAndPublish(events)
	return err
}

func (s *Session) joinLocked(playerID, name string) ([]Event, error) {
	if seat := s.seatOf(playerID); seat >= 0 {
		p := s.players[seat]
		if p.Connected || s.state != StateActive {
			return nil, nil
		}
		p.Connected = true
		if name != "" {
			p.Name = name
		}
		s.touch()
		s.log.Infof("📶 玩家 %s 重连", p.Name)
		return []Event{s.event(EventPlayerJoined, playerID)}, nil
	}

	if s.state != StateWaiting {
		return nil, apperrors.ErrAlreadyStarted
	}
	if len(s.players) >= s.policy.MaxPlayers {
		return nil, apperrors.ErrSessionFull
	}

	s.players = append(s.players, &Player{ID: playerID, Name: name, Connected: true})
	s.touch()
	s.log.Infof("👤 玩家 %s 加入会话 (%d/%d)", name, len(s.players), s.policy.MaxPlayers)
	return []Event{s.event(EventPlayerJoined, playerID)}, nil
}

// Start 房主开始游戏
func (s *Session) Start(requesterID string) error {
	s.mu.Lock()
	events, err := s.startLocked(requesterID)
	s.unlockAndPublish(events)
	return err
}

func (s *Session) startLocked(requesterID string) ([]Event, error) {
	if s.state != StateWaiting {
		return nil, apperrors.ErrAlreadyStarted
	}
	if requesterID != s.creatorID {
		return nil, apperrors.ErrNotCreator
	}
	if len(s.players) < s.policy.MinPlayers {
		return nil, fmt.Errorf("%w: need %d, have %d", apperrors.ErrNotEnoughPlayers, s.policy.MinPlayers, len(s.players))
	}

	roster := s.rulePlayers()
	data, err := s.rules.Initialize(roster, s.seed)
	if err != nil {
		return nil, fmt.Errorf("初始化游戏失败: %w", err)
	}

	s.data = data
	s.roster = roster
	s.state = StateActive
	s.current = 0
	s.touch()
	s.beginTurn()
	s.log.Infof("🎮 游戏开始，%d 名玩家", len(s.players))

	if s.rules.IsTerminal(s.data) {
		s.finish(s.rules.FinalScores(s.data, s.rulePlayers()))
		return []Event{s.event(EventSessionFinished, requesterID)}, nil
	}
	return []Event{s.event(EventStateUpdated, requesterID)}, nil
}

// Leave 离开会话。等待中直接移除（房主离开时转交给下一位玩家）；
// 进行中标记为离线，在线人数不足时按分数强制结束。
func (s *Session) Leave(playerID string) error {
	s.mu.Lock()
	events, err := s.leaveLocked(playerID)
	s.unlockAndPublish(events)
	return err
}

func (s *Session) leaveLocked(playerID string) ([]Event, error) {
	seat := s.seatOf(playerID)
	if seat < 0 {
		return nil, apperrors.ErrPlayerNotFound
	}

	switch s.state {
	case StateWaiting:
		s.players = slices.Delete(s.players, seat, seat+1)
		s.touch()
		if len(s.players) == 0 {
			s.finish(nil)
			s.log.Info("🏠 会话已解散")
			return []Event{s.event(EventPlayerLeft, playerID), s.event(EventSessionFinished, playerID)}, nil
		}
		if playerID == s.creatorID {
			s.handOffCreator()
		}
		s.log.Infof("👋 玩家 %s 离开会话", playerID)
		return []Event{s.event(EventPlayerLeft, playerID)}, nil

	case StateActive:
		p := s.players[seat]
		if !p.Connected {
			return nil, nil
		}
		p.Connected = false
		s.touch()
		s.log.Infof("📴 玩家 %s 离线", p.Name)
		if playerID == s.creatorID {
			s.handOffCreator()
		}
		events := []Event{s.event(EventPlayerLeft, playerID)}

		connected := s.connectedCount()
		if connected < s.policy.MinPlayers || (len(s.roster) >= 2 && connected <= 1) {
			s.finish(rule.RankByScore(s.rulePlayers()))
			s.log.Info("🏁 在线人数不足，游戏强制结束")
			return append(events, s.event(EventSessionFinished, playerID)), nil
		}
		if seat == s.current && s.policy.TurnBased {
			// 离开的玩家放弃本回合，未完成的翻牌、画作等按超时结算
			events = append(events, s.forfeitTurn()...)
		}
		return events, nil

	default:
		return nil, nil
	}
}

// End 房主强制结束会话，按当前数据结算
func (s *Session) End(requesterID string) error {
	s.mu.Lock()
	events, err := s.endLocked(requesterID)
	s.unlockAndPublish(events)
	return err
}

func (s *Session) endLocked(requesterID string) ([]Event, error) {
	if s.state == StateFinished {
		return nil, apperrors.ErrNotActive
	}
	if requesterID != s.creatorID {
		return nil, apperrors.ErrNotCreator
	}

	standings := rule.RankByScore(s.rulePlayers())
	if s.data != nil {
		standings = s.rules.FinalScores(s.data, s.rulePlayers())
	}
	s.finish(standings)
	s.log.Info("🛑 房主结束了游戏")
	return []Event{s.event(EventSessionFinished, requesterID)}, nil
}

// handOffCreator 房主转交给第一位在线玩家，没有在线玩家时保持不变
func (s *Session) handOffCreator() {
	for _, p := range s.players {
		if p.Connected && p.ID != s.creatorID {
			s.creatorID = p.ID
			s.log.Infof("👑 房主转交给 %s", p.Name)
			return
		}
	}
}

// Close 停止计时器，会话从注册表移除时调用
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
}

// finish 进入 Finished，调用方持有 mu
func (s *Session) finish(standings []rule.Standing) {
	s.stopTimer()
	s.state = StateFinished
	s.deadline = time.Time{}
	s.ranking = standings
	s.touch()
}

// fail 不变量被破坏：记录原因并强制结束，调用方持有 mu
func (s *Session) fail(err error) []Event {
	s.log.WithError(err).Error("❌ 会话状态不一致，强制结束")
	s.flagged = err.Error()
	s.finish(rule.RankByScore(s.rulePlayers()))
	return []Event{s.event(EventSessionFinished, "")}
}
