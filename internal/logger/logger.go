package logger

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Config 日志配置
type Config struct {
	Level  string // debug / info / warn / error
	Format string // text / json
	Output io.Writer
}

var (
	base = newDefault()
	mu   sync.RWMutex
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init 按配置初始化全局日志，未知级别返回错误并保持原设置
func Init(cfg Config) error {
	l := logrus.New()
	lvl := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return err
		}
		lvl = parsed
	}
	l.SetLevel(lvl)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	mu.Lock()
	base = l
	mu.Unlock()
	return nil
}

// L 返回全局 logger
func L() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithSession 带会话 ID 的日志条目
func WithSession(id string) *logrus.Entry {
	return L().WithField("session", id)
}

// WithPlayer 带玩家 ID 的日志条目
func WithPlayer(id string) *logrus.Entry {
	return L().WithField("player", id)
}

// LogPanic 记录 panic 及堆栈
func LogPanic(r any) {
	L().WithField("stack", string(debug.Stack())).Errorf("💥 panic: %v", r)
}
