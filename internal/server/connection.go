package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/palemoky/turn-party/internal/logger"
	"github.com/palemoky/turn-party/internal/protocol"
	"github.com/palemoky/turn-party/internal/protocol/codec"
)

const maxNameLength = 16

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	log := logger.L().WithField("ip", clientIP)

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info("🔧 维护模式，拒绝新连接")
		http.Error(w, "Server is under maintenance, please try again later", http.StatusServiceUnavailable)
		return
	}

	// 连接数限制，信号量在连接断开后释放
	select {
	case s.semaphore <- struct{}{}:
		defer func() { <-s.semaphore }()
	default:
		log.Warnf("🚫 达到最大连接数限制 (%d)", s.maxConnections)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	if !s.originChecker.Check(r) {
		log.Warnf("🚫 来源验证失败: %s", r.Header.Get("Origin"))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}
	if !s.rateLimiter.Allow(clientIP) {
		log.Warn("🚫 请求过于频繁")
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	identity, err := s.verifier.Verify(bearerToken(r))
	if err != nil {
		log.Warnf("🚫 身份校验失败: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket 升级失败: %v", err)
		return
	}

	client := newClient(s, conn, codec.ParseFormat(r.URL.Query().Get("codec")))
	client.ID = identity.PlayerID
	client.Name = displayName(identity.Name, r.URL.Query().Get("name"))
	client.IP = clientIP
	client.Guest = identity.Guest
	s.hub.register(client)

	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID:   client.ID,
		PlayerName: client.Name,
	}))
	logger.WithPlayer(client.ID).Infof("✅ 玩家 %s 已连接 (%s)", client.Name, client.format)

	go client.WritePump()
	client.ReadPump()
}

// bearerToken 从 Authorization 头或 token 查询参数读取令牌
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

// displayName 令牌中的昵称优先，其次是客户端请求的昵称，都没有时随机生成
func displayName(fromToken, requested string) string {
	if fromToken != "" {
		return fromToken
	}
	requested = strings.TrimSpace(requested)
	if requested == "" || !utf8.ValidString(requested) {
		return GenerateNickname()
	}
	if utf8.RuneCountInString(requested) > maxNameLength {
		requested = string([]rune(requested)[:maxNameLength])
	}
	return requested
}

// healthStatus 健康检查响应
type healthStatus struct {
	Status      string `json:"status"`
	Online      int    `json:"online"`
	Sessions    int    `json:"sessions"`
	Active      int    `json:"active"`
	Maintenance bool   `json:"maintenance"`
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := healthStatus{
		Status:      "ok",
		Online:      s.hub.OnlineCount(),
		Sessions:    s.registry.Len(),
		Active:      s.registry.ActiveCount(),
		Maintenance: s.IsMaintenanceMode(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}
