package server

import (
	"context"
	"runtime"
	"time"

	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

const monitorInterval = 30 * time.Second

// monitorStats 定期记录服务器状态，直到 ctx 结束
func (s *Server) monitorStats(ctx context.Context) {
	ticker := s.clock.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		logger.L().Infof("📊 [监控] 在线: %d | 会话: %d (进行中 %d) | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			s.hub.OnlineCount(),
			s.registry.Len(),
			s.registry.ActiveCount(),
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接，已有会话不受影响
func (s *Server) EnterMaintenanceMode() {
	if s.maintenance.Swap(true) {
		return
	}
	msg := codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：服务器即将重启",
	})
	s.hub.Broadcast(msg)
	codec.PutMessage(msg)

	logger.L().Info("🔧 进入维护模式：停止接受新连接")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	return s.maintenance.Load()
}

// shutdown 进入维护模式、关闭 HTTP 服务并断开所有连接
func (s *Server) shutdown(srv interface {
	Shutdown(ctx context.Context) error
}) error {
	s.EnterMaintenanceMode()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)

	// 已升级的 WebSocket 连接不受 http.Server 管理
	s.hub.CloseAll()
	logger.L().Info("👋 服务器已关闭")
	return err
}
