package session

import (
	"fmt"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/game/rule"
)

// --- 回合调度 ---
// 以下方法都要求调用方持有 mu

// beginTurn 开始新回合：递增 turnSeq 并重新计时
func (s *Session) beginTurn() {
	s.turnSeq++
	s.armTimer()
}

// advance 轮换到下一位在线玩家并开始新回合
func (s *Session) advance() {
	s.rotate()
	s.beginTurn()
}

// rotate 轮流制游戏跳过离线玩家；单人和全员作答游戏保持当前指针
func (s *Session) rotate() {
	if !s.policy.TurnBased {
		return
	}
	n := len(s.players)
	for i := 1; i <= n; i++ {
		next := (s.current + i) % n
		if s.players[next].Connected {
			s.current = next
			return
		}
	}
}

// armTimer 以完整回合时长重新计时，不计时的游戏清空截止时间
func (s *Session) armTimer() {
	s.stopTimer()
	if !s.policy.Timed() {
		s.deadline = time.Time{}
		return
	}
	d := s.policy.TurnDuration
	s.deadline = s.clock.Now().Add(d)
	seq := s.turnSeq
	s.timer = s.clock.AfterFunc(d, func() {
		s.onDeadlineElapsed(seq)
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) deadlinePassed(now time.Time) bool {
	return !s.deadline.IsZero() && !now.Before(s.deadline)
}

// onDeadlineElapsed 计时器回调。回合已被玩家动作结算、或截止时间已被延后时不做任何事。
func (s *Session) onDeadlineElapsed(seq uint64) {
	s.mu.Lock()
	if s.state != StateActive || seq != s.turnSeq || !s.deadlinePassed(s.clock.Now()) {
		s.mu.Unlock()
		return
	}
	s.unlockAndPublish(s.resolveTimeout())
}

// resolveTimeout 当前玩家超时，放弃回合并发布 TurnTimedOut
func (s *Session) resolveTimeout() []Event {
	p := s.players[s.current]
	s.log.WithField("turn", s.turnSeq).Infof("⏰ 玩家 %s 回合超时", p.Name)
	events := s.forfeitTurn()
	timedOut := s.event(EventTurnTimedOut, p.ID)
	return append([]Event{timedOut}, events...)
}

// forfeitTurn 为当前玩家合成 TimeUp，经过 Validate/Apply 结算本回合的状态后无论结果如何都轮换
func (s *Session) forfeitTurn() []Event {
	s.stopTimer()
	p := s.players[s.current]
	mv := rule.Move{
		PlayerID:  p.ID,
		Actor:     s.current,
		Current:   s.current,
		Connected: s.connectedMask(),
		Action:    rule.Action{Type: rule.ActionTimeUp},
	}
	if err := s.rules.Validate(s.data, mv); err != nil {
		return s.fail(fmt.Errorf("%w: forfeit rejected: %v", apperrors.ErrFatalInconsistency, err))
	}
	res, err := s.rules.Apply(s.data, mv)
	if err != nil {
		return s.fail(fmt.Errorf("%w: forfeit apply: %v", apperrors.ErrFatalInconsistency, err))
	}
	return s.commit(mv, res, true)
}
