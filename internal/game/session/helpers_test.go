package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/game/rule"
)

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) ofType(typ EventType) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	s     *Session
	clock *clock.Fake
	rec   *recorder
}

// newFixture 创建会话并按顺序加入玩家 p1..pN，p1 为房主
func newFixture(t *testing.T, gt rule.GameType, players int) *fixture {
	t.Helper()
	rules, err := rule.NewCatalog(rule.Options{}).Get(gt)
	require.NoError(t, err)
	return newFixtureWithRules(t, rules, players)
}

func newFixtureWithRules(t *testing.T, rules rule.Rules, players int) *fixture {
	t.Helper()
	f := &fixture{clock: clock.NewFake(testStart), rec: &recorder{}}
	f.s = New("sess-1", rules, "p1", "Player1", Options{Clock: f.clock, Sink: f.rec, Seed: 42})
	for i := 2; i <= players; i++ {
		require.NoError(t, f.s.Join(playerID(i), "Player"+playerID(i)[1:]))
	}
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	require.NoError(t, f.s.Start("p1"))
}

func playerID(i int) string {
	return "p" + string(rune('0'+i))
}

func mark(cell int) rule.Action {
	return rule.Action{Type: rule.ActionMark, Index: cell}
}

func flip(index int) rule.Action {
	return rule.Action{Type: rule.ActionFlip, Index: index}
}

// memoryPair 返回牌局中第一对相同牌面的位置
func memoryPair(t *testing.T, s *Session) (int, int) {
	t.Helper()
	cards := s.Data().(*rule.MemoryData).Cards
	for i := range cards {
		for j := i + 1; j < len(cards); j++ {
			if cards[i] == cards[j] {
				return i, j
			}
		}
	}
	t.Fatal("deck has no pair")
	return -1, -1
}
