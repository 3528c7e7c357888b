//go:build !production

package testutil

import (
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/turn-party/internal/game/session"
)

// RecordingSink 记录所有事件
type RecordingSink struct {
	mu     sync.Mutex
	events []session.Event
}

// NewRecordingSink 创建记录器
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (r *RecordingSink) Publish(ev session.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events 已记录事件的副本
func (r *RecordingSink) Events() []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]session.Event(nil), r.events...)
}

// OfType 指定类型的事件
func (r *RecordingSink) OfType(typ session.EventType) []session.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []session.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Reset 清空记录
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// MockSink EventSink mock
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Publish(ev session.Event) {
	m.Called(ev)
}
