package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 会话操作
	MsgCreateSession MessageType = "create_session" // 创建会话
	MsgJoinSession   MessageType = "join_session"   // 加入会话
	MsgStartSession  MessageType = "start_session"  // 开始游戏
	MsgLeaveSession  MessageType = "leave_session"  // 离开会话
	MsgEndSession    MessageType = "end_session"    // 房主结束游戏

	// 游戏操作
	MsgSubmitAction MessageType = "submit_action" // 提交动作
	MsgGetState     MessageType = "get_state"     // 拉取当前状态

	// 排行榜操作
	MsgGetStats       MessageType = "get_stats"       // 获取个人统计
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	// 会话相关
	MsgSessionCreated MessageType = "session_created" // 会话创建成功
	MsgPlayerJoined   MessageType = "player_joined"   // 玩家加入
	MsgPlayerLeft     MessageType = "player_left"     // 玩家离开

	// 游戏流程
	MsgStateUpdated    MessageType = "state_updated"    // 状态更新
	MsgSessionFinished MessageType = "session_finished" // 游戏结束
	MsgTurnTimedOut    MessageType = "turn_timed_out"   // 回合超时
	MsgActionRejected  MessageType = "action_rejected"  // 动作被拒绝
	MsgPrivateView     MessageType = "private_view"     // 个人视图
	MsgStateResult     MessageType = "state_result"     // get_state 响应

	// 排行榜相关
	MsgStatsResult       MessageType = "stats_result"       // 个人统计
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜

	// 错误
	MsgError MessageType = "error" // 错误消息
)
