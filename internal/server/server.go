package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/turn-party/internal/auth"
	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/config"
	"github.com/palemoky/turn-party/internal/game/registry"
	"github.com/palemoky/turn-party/internal/logger"
)

const shutdownTimeout = 10 * time.Second

// Options 服务器依赖
type Options struct {
	Config      *config.Config
	Registry    *registry.Registry
	Hub         *Hub // 必须与 Registry 的事件接收者是同一个
	Verifier    auth.Verifier
	Leaderboard Leaderboard // 可以为 nil
	Clock       clock.Clock
}

// Server WebSocket 网关
type Server struct {
	config   *config.Config
	registry *registry.Registry
	hub      *Hub
	handler  *Handler
	verifier auth.Verifier
	clock    clock.Clock
	upgrader websocket.Upgrader

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{}

	maintenance atomic.Bool
}

// New 创建服务器实例
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Hub == nil {
		opts.Hub = NewHub()
	}
	if opts.Verifier == nil {
		opts.Verifier = auth.NewJWTVerifier(auth.Config{
			Secret:      cfg.Auth.JWTSecret,
			Issuer:      cfg.Auth.Issuer,
			AllowGuests: cfg.Auth.AllowGuests,
			Clock:       opts.Clock,
		})
	}

	s := &Server{
		config:   cfg,
		registry: opts.Registry,
		hub:      opts.Hub,
		handler:  NewHandler(opts.Registry, opts.Leaderboard, opts.Clock),
		verifier: opts.Verifier,
		clock:    opts.Clock,
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
			opts.Clock,
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond, opts.Clock),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	logger.L().Infof("🔒 安全配置: 连接限制=%d/s, 消息限制=%d/s, 最大连接数=%d",
		cfg.Security.RateLimit.MaxPerSecond, cfg.Security.MessageLimit.MaxPerSecond, cfg.Server.MaxConnections)
	return s
}

// Routes HTTP 路由
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Serve 启动服务器，ctx 结束后优雅关闭
func (s *Server) Serve(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L().Infof("🚀 服务器启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return s.rateLimiter.Run(ctx) })
	g.Go(func() error {
		s.monitorStats(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.shutdown(srv)
	})
	return g.Wait()
}
