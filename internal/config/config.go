package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 1780
	defaultMaxConnections = 10000

	defaultRedisAddr   = "localhost:6379"
	defaultSnapshotTTL = 120 // 分钟

	defaultTurnTimeout       = 30  // 秒
	defaultFinishedRetention = 300 // 秒
	defaultWaitingIdle       = 30  // 分钟
	defaultSweepInterval     = 60  // 秒

	defaultIssuer = "turn-party"

	defaultMaxPerSecond     = 10
	defaultMaxPerMinute     = 300
	defaultBanDuration      = 60 // 秒
	defaultMessagePerSecond = 20

	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Auth     AuthConfig     `yaml:"auth"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig Redis 配置，Disabled 时不保存快照和排行榜
type RedisConfig struct {
	Addr        string `yaml:"addr"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db"`
	SnapshotTTL int    `yaml:"snapshot_ttl"` // 快照保留时间（分钟）
	Disabled    bool   `yaml:"disabled"`
}

// SnapshotTTLDuration 返回快照保留时长
func (c *RedisConfig) SnapshotTTLDuration() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Minute
}

// GameConfig 游戏配置
type GameConfig struct {
	TurnTimeout       int            `yaml:"turn_timeout"`       // 默认回合超时（秒）
	TurnTimeouts      map[string]int `yaml:"turn_timeouts"`      // 按游戏类型覆盖（秒）
	FinishedRetention int            `yaml:"finished_retention"` // 已结束会话保留时间（秒）
	WaitingIdle       int            `yaml:"waiting_idle"`       // 等待中会话最长空闲（分钟）
	SweepInterval     int            `yaml:"sweep_interval"`     // 清理间隔（秒）

	SnakeWrap   bool `yaml:"snake_wrap"`   // 贪吃蛇穿墙
	SnakeSize   int  `yaml:"snake_size"`   // 贪吃蛇棋盘边长
	PuzzleSize  int  `yaml:"puzzle_size"`  // 华容道边长
	MemoryPairs int  `yaml:"memory_pairs"` // 翻牌对数
}

// TurnTimeoutDuration 返回默认回合超时时长
func (c *GameConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// TurnTimeoutsDuration 返回按游戏类型覆盖的回合超时
func (c *GameConfig) TurnTimeoutsDuration() map[string]time.Duration {
	out := make(map[string]time.Duration, len(c.TurnTimeouts))
	for gt, sec := range c.TurnTimeouts {
		if sec > 0 {
			out[gt] = time.Duration(sec) * time.Second
		}
	}
	return out
}

// FinishedRetentionDuration 返回已结束会话保留时长
func (c *GameConfig) FinishedRetentionDuration() time.Duration {
	return time.Duration(c.FinishedRetention) * time.Second
}

// WaitingIdleDuration 返回等待中会话的最长空闲时长
func (c *GameConfig) WaitingIdleDuration() time.Duration {
	return time.Duration(c.WaitingIdle) * time.Minute
}

// SweepIntervalDuration 返回清理间隔
func (c *GameConfig) SweepIntervalDuration() time.Duration {
	return time.Duration(c.SweepInterval) * time.Second
}

// AuthConfig 身份验证配置，JWTSecret 为空时所有玩家以游客身份进入
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	Issuer      string `yaml:"issuer"`
	AllowGuests bool   `yaml:"allow_guests"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 按 IP 的连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// MessageLimitConfig 单个连接的消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load 加载配置文件，缺省字段使用默认值，环境变量优先
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Redis.SnapshotTTL == 0 {
		c.Redis.SnapshotTTL = defaultSnapshotTTL
	}

	if c.Game.TurnTimeout == 0 {
		c.Game.TurnTimeout = defaultTurnTimeout
	}
	if c.Game.FinishedRetention == 0 {
		c.Game.FinishedRetention = defaultFinishedRetention
	}
	if c.Game.WaitingIdle == 0 {
		c.Game.WaitingIdle = defaultWaitingIdle
	}
	if c.Game.SweepInterval == 0 {
		c.Game.SweepInterval = defaultSweepInterval
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = defaultIssuer
	}

	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.RateLimit.MaxPerSecond == 0 {
		c.Security.RateLimit.MaxPerSecond = defaultMaxPerSecond
	}
	if c.Security.RateLimit.MaxPerMinute == 0 {
		c.Security.RateLimit.MaxPerMinute = defaultMaxPerMinute
	}
	if c.Security.RateLimit.BanDuration == 0 {
		c.Security.RateLimit.BanDuration = defaultBanDuration
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMessagePerSecond
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// ApplyEnv 用环境变量覆盖配置
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT 无效: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("GAME_TURN_TIMEOUT"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GAME_TURN_TIMEOUT 无效: %w", err)
		}
		c.Game.TurnTimeout = sec
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for o := range strings.SplitSeq(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Security.AllowedOrigins = origins
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}
