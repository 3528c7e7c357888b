package session

import (
	"github.com/palemoky/turn-party/internal/game/rule"
)

// EventType 事件类型
type EventType string

const (
	EventStateUpdated    EventType = "state_updated"
	EventSessionFinished EventType = "session_finished"
	EventTurnTimedOut    EventType = "turn_timed_out"
	EventActionRejected  EventType = "action_rejected"
	EventPlayerJoined    EventType = "player_joined"
	EventPlayerLeft      EventType = "player_left"
)

// Event 会话在提交修改后发出的事件
type Event struct {
	Type       EventType
	SessionID  string
	PlayerID   string // 触发者；超时事件为超时玩家；拒绝事件为发起者
	ActionID   string
	Recipients []string // 应收到事件的玩家
	Snapshot   Snapshot
	Private    map[string]any // 玩家专属视图，仅在游戏提供时存在
	Ranking    []rule.Standing
	Err        error // 拒绝原因
}

// EventSink 事件接收者。Publish 在会话锁之外按提交顺序调用，
// 实现不能在 Publish 中同步调用同一会话的任何方法，所需数据都在 Event 中。
type EventSink interface {
	Publish(ev Event)
}

// SinkFunc 函数形式的 EventSink
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// NopSink 丢弃所有事件
type NopSink struct{}

func (NopSink) Publish(Event) {}

// MultiSink 依次转发给多个接收者
type MultiSink []EventSink

func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// event 以当前快照构造事件，调用方持有 mu
func (s *Session) event(typ EventType, playerID string) Event {
	ev := Event{
		Type:       typ,
		SessionID:  s.id,
		PlayerID:   playerID,
		Recipients: s.connectedIDs(),
		Snapshot:   s.snapshotLocked(),
	}
	if typ == EventSessionFinished {
		ev.Ranking = append([]rule.Standing(nil), s.ranking...)
	}
	if s.data != nil && s.state == StateActive {
		if _, ok := s.data.(rule.PrivateViewer); ok {
			ev.Private = make(map[string]any, len(s.players))
			for i, p := range s.players {
				if p.Connected {
					ev.Private[p.ID] = rule.PrivateView(s.data, i, s.current)
				}
			}
		}
	}
	return ev
}

func (s *Session) connectedIDs() []string {
	ids := make([]string, 0, len(s.players))
	for _, p := range s.players {
		if p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// rejection 只发给发起者的拒绝事件
func (s *Session) rejection(playerID, actionID string, err error) Event {
	return Event{
		Type:       EventActionRejected,
		SessionID:  s.id,
		PlayerID:   playerID,
		ActionID:   actionID,
		Recipients: []string{playerID},
		Err:        err,
	}
}

// unlockAndPublish 释放 mu 并发布事件。持有 pubMu 后才释放 mu，
// 因此后提交的修改不会先于先提交的修改发布。
func (s *Session) unlockAndPublish(events []Event) {
	if len(events) == 0 {
		s.mu.Unlock()
		return
	}
	s.pubMu.Lock()
	s.mu.Unlock()
	defer s.pubMu.Unlock()
	for _, ev := range events {
		s.sink.Publish(ev)
	}
}
