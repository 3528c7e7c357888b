package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/turn-party/internal/apperrors"
	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/game/session"
	"github.com/palemoky/turn-party/internal/logger"
)

const (
	defaultFinishedRetention = 5 * time.Minute
	defaultWaitingIdle       = 30 * time.Minute
	defaultSweepInterval     = time.Minute
)

// Config 清理策略
type Config struct {
	FinishedRetention time.Duration // 已结束会话的保留时间
	WaitingIdle       time.Duration // 等待中会话的最长空闲时间
	SweepInterval     time.Duration
}

// Registry 进程内的会话表。读并发、写串行，不跨会话加锁。
type Registry struct {
	catalog *rule.Catalog
	clock   clock.Clock
	sink    session.EventSink
	cfg     Config

	sessions map[string]*session.Session
	mu       sync.RWMutex
}

// New 创建会话注册表，sink 接收所有会话的事件
func New(catalog *rule.Catalog, sink session.EventSink, clk clock.Clock, cfg Config) *Registry {
	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.FinishedRetention <= 0 {
		cfg.FinishedRetention = defaultFinishedRetention
	}
	if cfg.WaitingIdle <= 0 {
		cfg.WaitingIdle = defaultWaitingIdle
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	return &Registry{
		catalog:  catalog,
		clock:    clk,
		sink:     sink,
		cfg:      cfg,
		sessions: make(map[string]*session.Session),
	}
}

// Create 创建会话，创建者成为第一位玩家
func (r *Registry) Create(gameType rule.GameType, creatorID, creatorName string) (*session.Session, error) {
	rules, err := r.catalog.Get(gameType)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	for r.sessions[id] != nil {
		id = uuid.NewString()
	}
	s := r.newSession(id, rules, creatorID, creatorName)
	r.sessions[id] = s

	logger.WithSession(id).Infof("🏠 会话已创建，游戏 %s，房主 %s", gameType, creatorName)
	return s, nil
}

// GetOrCreate 获取指定 ID 的会话，不存在时以该 ID 创建，第二个返回值表示是否新建
func (r *Registry) GetOrCreate(id string, gameType rule.GameType, creatorID, creatorName string) (*session.Session, bool, error) {
	if s := r.Get(id); s != nil {
		return s, false, nil
	}
	rules, err := r.catalog.Get(gameType)
	if err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, false, nil
	}
	s := r.newSession(id, rules, creatorID, creatorName)
	r.sessions[id] = s
	logger.WithSession(id).Infof("🏠 会话已创建，游戏 %s，房主 %s", gameType, creatorName)
	return s, true, nil
}

func (r *Registry) newSession(id string, rules rule.Rules, creatorID, creatorName string) *session.Session {
	return session.New(id, rules, creatorID, creatorName, session.Options{
		Clock: r.clock,
		Sink:  r.sink,
	})
}

// Get 获取会话，不存在返回 nil
func (r *Registry) Get(id string) *session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Lookup 获取会话，不存在返回 ErrSessionNotFound
func (r *Registry) Lookup(id string) (*session.Session, error) {
	if s := r.Get(id); s != nil {
		return s, nil
	}
	return nil, apperrors.ErrSessionNotFound
}

// Remove 移除会话并停止其计时器
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len 当前会话数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ActiveCount 进行中的会话数
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if s.State() == session.StateActive {
			n++
		}
	}
	return n
}

// Sweep 清理超过保留时间的已结束会话和长时间空闲的等待中会话，返回清理数量
func (r *Registry) Sweep(now time.Time) int {
	r.mu.RLock()
	var expired []*session.Session
	for _, s := range r.sessions {
		if r.expired(s, now) {
			expired = append(expired, s)
		}
	}
	r.mu.RUnlock()

	removed := 0
	r.mu.Lock()
	for _, s := range expired {
		// 收集之后会话可能又有了新动作
		if r.sessions[s.ID()] != s || !r.expired(s, now) {
			continue
		}
		delete(r.sessions, s.ID())
		removed++
	}
	r.mu.Unlock()

	for _, s := range expired {
		if r.Get(s.ID()) == nil {
			s.Close()
		}
	}
	if removed > 0 {
		logger.L().Infof("🧹 清理了 %d 个会话，剩余 %d", removed, r.Len())
	}
	return removed
}

func (r *Registry) expired(s *session.Session, now time.Time) bool {
	state, last := s.Activity()
	idle := now.Sub(last)
	switch state {
	case session.StateFinished:
		return idle > r.cfg.FinishedRetention
	case session.StateWaiting:
		return idle > r.cfg.WaitingIdle
	default:
		return false
	}
}

// Run 按 SweepInterval 定期清理，直到 ctx 结束
func (r *Registry) Run(ctx context.Context) error {
	ticker := r.clock.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			r.Sweep(r.clock.Now())
		}
	}
}
