package session

import (
	"fmt"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/game/rule"
)

// SubmitAction 提交玩家动作，返回本次发布的事件。
// 被拒绝时返回错误，同时向发起者发布 ActionRejected；已执行过的动作 ID 直接返回 nil, nil。
func (s *Session) SubmitAction(playerID string, a rule.Action) ([]Event, error) {
	s.mu.Lock()
	events, err := s.submitLocked(playerID, a)
	if err != nil {
		s.log.WithField("player", playerID).WithError(err).Debug("🚫 动作被拒绝")
		events = append(events, s.rejection(playerID, a.ID, err))
	}
	s.unlockAndPublish(events)
	return events, err
}

func (s *Session) submitLocked(playerID string, a rule.Action) ([]Event, error) {
	if a.ID != "" {
		if _, dup := s.applied[a.ID]; dup {
			return nil, nil
		}
	}

	switch s.state {
	case StateWaiting:
		return nil, apperrors.ErrNotActive
	case StateFinished:
		return nil, apperrors.ErrAlreadyTerminal
	}

	seat := s.seatOf(playerID)
	if seat < 0 {
		return nil, apperrors.ErrPlayerNotFound
	}
	if !s.players[seat].Connected {
		return nil, fmt.Errorf("%w: player %s is disconnected", apperrors.ErrPlayerNotFound, playerID)
	}
	if a.Type == rule.ActionTimeUp {
		return nil, fmt.Errorf("%w: %s is reserved for the scheduler", apperrors.ErrIllegalMove, a.Type)
	}

	// 截止时间已过而回调尚未执行：先在这里结算超时，再拒绝这个迟到的动作
	if s.deadlinePassed(s.clock.Now()) {
		events := s.resolveTimeout()
		return events, fmt.Errorf("%w: turn %d deadline passed", apperrors.ErrAlreadyResolved, a.TurnSeq)
	}
	if a.TurnSeq != 0 && a.TurnSeq != s.turnSeq {
		return nil, fmt.Errorf("%w: action targets turn %d, current turn is %d", apperrors.ErrAlreadyResolved, a.TurnSeq, s.turnSeq)
	}

	mv := rule.Move{
		PlayerID:  playerID,
		Actor:     seat,
		Current:   s.current,
		Connected: s.connectedMask(),
		Action:    a,
	}
	if err := s.rules.Validate(s.data, mv); err != nil {
		if apperrors.KindOf(err) == apperrors.KindFatal {
			return s.fail(err), err
		}
		return nil, err
	}
	res, err := s.rules.Apply(s.data, mv)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindFatal {
			return s.fail(err), err
		}
		return nil, err
	}
	return s.commit(mv, res, false), nil
}

// commit 写入规则结果并推进回合，调用方持有 mu。
// forceRotate 用于超时：不论 AdvanceTurn 都开始下一回合。
// 回合未结束的动作不改变截止时间。
func (s *Session) commit(mv rule.Move, res rule.Result, forceRotate bool) []Event {
	if res.Data == nil {
		return s.fail(fmt.Errorf("%w: rules returned no data", apperrors.ErrFatalInconsistency))
	}

	s.data = res.Data
	s.players[mv.Actor].Score += res.ScoreDelta
	s.history = append(s.history, Entry{
		Seq:        len(s.history) + 1,
		TurnSeq:    s.turnSeq,
		Move:       mv,
		ScoreDelta: res.ScoreDelta,
		At:         s.clock.Now(),
	})
	if mv.Action.ID != "" {
		s.applied[mv.Action.ID] = struct{}{}
	}
	s.touch()

	if s.rules.IsTerminal(s.data) {
		s.finish(s.rules.FinalScores(s.data, s.rulePlayers()))
		s.log.Info("🏁 游戏结束")
		return []Event{s.event(EventSessionFinished, mv.PlayerID)}
	}

	switch {
	case res.AdvanceTurn || forceRotate:
		s.advance()
	case res.ContinueTurn:
		s.beginTurn()
	}

	if err := s.checkInvariants(); err != nil {
		return s.fail(err)
	}
	return []Event{s.event(EventStateUpdated, mv.PlayerID)}
}

func (s *Session) checkInvariants() error {
	if s.state != StateFinished && len(s.players) == 0 {
		return fmt.Errorf("%w: session has no players", apperrors.ErrFatalInconsistency)
	}
	if s.state == StateActive && (s.current < 0 || s.current >= len(s.players)) {
		return fmt.Errorf("%w: current turn %d out of range", apperrors.ErrFatalInconsistency, s.current)
	}
	return nil
}
