package session

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/logger"
)

// State 会话状态
type State int

const (
	StateWaiting State = iota
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Player 会话中的玩家，切片顺序即回合顺序
type Player struct {
	ID        string
	Name      string
	Score     int
	Connected bool
}

// Entry 一条已执行的动作记录
type Entry struct {
	Seq        int       `json:"seq"`
	TurnSeq    uint64    `json:"turn_seq"`
	Move       rule.Move `json:"move"`
	ScoreDelta int       `json:"score_delta"`
	At         time.Time `json:"at"`
}

// Options 会话的可选依赖
type Options struct {
	Clock  clock.Clock
	Sink   EventSink
	Seed   uint64 // 0 表示随机
	Logger *logrus.Entry
}

// Session 单个游戏会话，所有修改都在 mu 下串行执行
type Session struct {
	id       string
	gameType rule.GameType
	rules    rule.Rules
	policy   rule.Policy
	clock    clock.Clock
	sink     EventSink
	log      *logrus.Entry

	mu        sync.Mutex
	creatorID string
	players   []*Player
	state     State
	current   int
	turnSeq   uint64
	deadline  time.Time
	timer     clock.Timer
	seed      uint64
	data      rule.Data
	roster    []rule.Player // 开局时的玩家，用于回放
	history   []Entry
	applied   map[string]struct{}
	ranking   []rule.Standing
	flagged   string
	version   uint64

	createdAt    time.Time
	lastActivity time.Time

	// pubMu 在释放 mu 之前获取，保证事件按提交顺序发布
	pubMu sync.Mutex
}

// New 创建会话，创建者成为第一位玩家
func New(id string, rules rule.Rules, creatorID, creatorName string, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if opts.Logger == nil {
		opts.Logger = logger.WithSession(id)
	}

	now := opts.Clock.Now()
	return &Session{
		id:           id,
		gameType:     rules.Type(),
		rules:        rules,
		policy:       rules.Policy(),
		clock:        opts.Clock,
		sink:         opts.Sink,
		log:          opts.Logger.WithField("game", rules.Type()),
		creatorID:    creatorID,
		players:      []*Player{{ID: creatorID, Name: creatorName, Connected: true}},
		seed:         opts.Seed,
		applied:      make(map[string]struct{}),
		createdAt:    now,
		lastActivity: now,
	}
}

// ID 会话 ID
func (s *Session) ID() string { return s.id }

// GameType 游戏类型
func (s *Session) GameType() rule.GameType { return s.gameType }

// State 当前状态
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Activity 当前状态与最后一次修改的时间，用于清理
func (s *Session) Activity() (State, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastActivity
}

// HasPlayer 玩家是否在会话中
func (s *Session) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seatOf(playerID) >= 0
}

// Flagged 强制结束时记录的不一致原因，正常为空
func (s *Session) Flagged() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagged
}

func (s *Session) seatOf(playerID string) int {
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) connectedCount() int {
	n := 0
	for _, p := range s.players {
		if p.Connected {
			n++
		}
	}
	return n
}

func (s *Session) connectedMask() []bool {
	mask := make([]bool, len(s.players))
	for i, p := range s.players {
		mask[i] = p.Connected
	}
	return mask
}

func (s *Session) rulePlayers() []rule.Player {
	out := make([]rule.Player, len(s.players))
	for i, p := range s.players {
		out[i] = rule.Player{ID: p.ID, Name: p.Name, Score: p.Score}
	}
	return out
}

func (s *Session) touch() {
	s.version++
	s.lastActivity = s.clock.Now()
}
