package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/turn-party/internal/auth"
	"github.com/palemoky/turn-party/internal/clock"
	"github.com/palemoky/turn-party/internal/config"
	"github.com/palemoky/turn-party/internal/game/registry"
	"github.com/palemoky/turn-party/internal/game/rule"
	"github.com/palemoky/turn-party/internal/game/session"
	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/server"
	"github.com/palemoky/turn-party/internal/storage"
)

const redisPingTimeout = 3 * time.Second

func main() {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "加载 .env 失败: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logger.L().Fatalf("服务器退出: %v", err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "turn-party",
		Usage: "多人回合制小游戏服务器",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "配置文件路径",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别，覆盖配置文件 (debug/info/warn/error)",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "用配置中的 JWT 密钥签发玩家令牌",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "player", Usage: "玩家 ID", Required: true},
					&cli.StringFlag{Name: "name", Usage: "玩家昵称"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "有效期，0 表示不过期"},
				},
				Action: issueToken,
			},
		},
	}
}

// loadConfig 加载配置文件，失败时使用默认配置加环境变量
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	clk := clock.Real{}
	hub := server.NewHub()
	sinks := session.MultiSink{hub}

	var (
		board    server.Leaderboard
		recorder *storage.Recorder
	)
	if client := connectRedis(ctx, cfg); client != nil {
		defer client.Close()
		leaderboard := storage.NewLeaderboard(client, clk)
		recorder = storage.NewRecorder(storage.NewSnapshotStore(client, cfg.Redis.SnapshotTTLDuration()), leaderboard, 0)
		board = leaderboard
		sinks = append(sinks, recorder)
	}

	catalog := rule.NewCatalog(catalogOptions(cfg))
	reg := registry.New(catalog, sinks, clk, registry.Config{
		FinishedRetention: cfg.Game.FinishedRetentionDuration(),
		WaitingIdle:       cfg.Game.WaitingIdleDuration(),
		SweepInterval:     cfg.Game.SweepIntervalDuration(),
	})
	srv := server.New(server.Options{
		Config:      cfg,
		Registry:    reg,
		Hub:         hub,
		Leaderboard: board,
		Clock:       clk,
	})

	logger.L().Infof("🎮 游戏服务器启动中... 可用游戏: %v", catalog.Types())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx) })
	g.Go(func() error { return reg.Run(ctx) })
	if recorder != nil {
		g.Go(func() error { return recorder.Run(ctx) })
	}
	return g.Wait()
}

// connectRedis 连接 Redis，禁用或不可用时返回 nil，服务器在无排行榜模式下运行
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.Redis.Disabled {
		logger.L().Info("💾 Redis 已禁用，排行榜和快照不可用")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.L().Warnf("⚠️ Redis 连接失败 (%s)，排行榜和快照不可用: %v", cfg.Redis.Addr, err)
		_ = client.Close()
		return nil
	}
	logger.L().Infof("💾 已连接 Redis: %s", cfg.Redis.Addr)
	return client
}

// catalogOptions 把配置转换为规则参数
func catalogOptions(cfg *config.Config) rule.Options {
	opts := rule.Options{
		TurnDuration: cfg.Game.TurnTimeoutDuration(),
		SnakeWrap:    cfg.Game.SnakeWrap,
		SnakeSize:    cfg.Game.SnakeSize,
		PuzzleSize:   cfg.Game.PuzzleSize,
		MemoryPairs:  cfg.Game.MemoryPairs,
	}
	if overrides := cfg.Game.TurnTimeoutsDuration(); len(overrides) > 0 {
		opts.TurnDurations = make(map[rule.GameType]time.Duration, len(overrides))
		for gt, d := range overrides {
			opts.TurnDurations[rule.GameType(gt)] = d
		}
	}
	return opts
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("未配置 auth.jwt_secret 或 JWT_SECRET")
	}
	issuer := auth.NewJWTVerifier(auth.Config{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer})
	token, err := issuer.Issue(cmd.String("player"), cmd.String("name"), cmd.Duration("ttl"))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}
