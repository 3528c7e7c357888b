package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateSessionPayload 创建会话请求
type CreateSessionPayload struct {
	GameType string `json:"game_type"`
}

// SessionRefPayload 只携带会话 ID 的请求（加入、开始、离开、结束、拉取状态）
type SessionRefPayload struct {
	SessionID string `json:"session_id"`
}

// ActionInfo 玩家动作
type ActionInfo struct {
	ID        string `json:"id,omitempty"`       // 客户端动作 ID，用于去重
	Type      string `json:"type"`               // 动作类型
	TurnSeq   uint64 `json:"turn_seq,omitempty"` // 动作针对的回合序号
	Index     int    `json:"index,omitempty"`    // 棋盘格/卡牌/方块位置
	Option    int    `json:"option,omitempty"`   // 答题选项
	Text      string `json:"text,omitempty"`     // 单词或猜测
	Drawing   string `json:"drawing,omitempty"`  // 画作快照引用
	Direction string `json:"direction,omitempty"`
}

// SubmitActionPayload 提交动作请求
type SubmitActionPayload struct {
	SessionID string     `json:"session_id"`
	Action    ActionInfo `json:"action"`
}

// GetLeaderboardPayload 获取排行榜请求，game_type 为空时返回总榜
type GetLeaderboardPayload struct {
	GameType string `json:"game_type,omitempty"`
	Limit    int    `json:"limit"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// SessionCreatedPayload 会话创建成功响应
type SessionCreatedPayload struct {
	SessionID string `json:"session_id"`
	GameType  string `json:"game_type"`
	Snapshot  any    `json:"snapshot"`
}

// PlayerEventPayload 玩家加入/离开通知
type PlayerEventPayload struct {
	SessionID  string `json:"session_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Snapshot   any    `json:"snapshot,omitempty"`
}

// StateUpdatedPayload 状态更新通知
type StateUpdatedPayload struct {
	SessionID string `json:"session_id"`
	Snapshot  any    `json:"snapshot"`
}

// SessionFinishedPayload 游戏结束通知
type SessionFinishedPayload struct {
	SessionID string `json:"session_id"`
	Ranking   any    `json:"ranking"`
	Snapshot  any    `json:"snapshot,omitempty"`
}

// TurnTimedOutPayload 回合超时通知
type TurnTimedOutPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

// ActionRejectedPayload 动作被拒绝通知（只发给动作发起者）
type ActionRejectedPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	ActionID  string `json:"action_id,omitempty"`
	Code      int    `json:"code"`
	Reason    string `json:"reason"`
}

// PrivateViewPayload 个人视图
type PrivateViewPayload struct {
	SessionID string `json:"session_id"`
	View      any    `json:"view"`
}

// StateResultPayload get_state 响应，附带请求者的个人视图
type StateResultPayload struct {
	SessionID string `json:"session_id"`
	Snapshot  any    `json:"snapshot"`
	View      any    `json:"view,omitempty"`
}

// StatsResultPayload 个人统计
type StatsResultPayload struct {
	PlayerID      string  `json:"player_id"`
	PlayerName    string  `json:"player_name"`
	Games         int     `json:"games"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"win_rate"`
	Points        int     `json:"points"`
	BestScore     int     `json:"best_score"`
	Rank          int     `json:"rank"` // -1 表示未上榜
	CurrentStreak int     `json:"current_streak"`
	MaxWinStreak  int     `json:"max_win_streak"`
}

// LeaderboardResultPayload 排行榜
type LeaderboardResultPayload struct {
	GameType string `json:"game_type,omitempty"`
	Entries  any    `json:"entries"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
