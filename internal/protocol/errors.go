package protocol

// 错误码
const (
	ErrCodeUnknown      = 1000
	ErrCodeInvalidMsg   = 1001
	ErrCodeRateLimit    = 1002 // 速率限制
	ErrCodeUnauthorized = 1003 // 身份校验失败

	// 会话
	ErrCodeSessionNotFound  = 2001
	ErrCodeSessionFull      = 2002
	ErrCodePlayerNotFound   = 2003
	ErrCodeAlreadyStarted   = 2004
	ErrCodeNotEnoughPlayers = 2005
	ErrCodeNotCreator       = 2006
	ErrCodeNotActive        = 2007
	ErrCodeUnknownGame      = 2008

	// 动作校验
	ErrCodeNotYourTurn     = 3001
	ErrCodeIllegalMove     = 3002
	ErrCodeDuplicateInput  = 3003
	ErrCodeOutOfRange      = 3004
	ErrCodeAlreadyTerminal = 3005

	// 状态冲突
	ErrCodeAlreadyResolved = 4001

	// 内部错误
	ErrCodeFatalInconsistency = 5001
	ErrCodeStorageUnavailable = 5002 // 排行榜存储不可用
	ErrCodeServerMaintenance  = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:            "未知错误",
	ErrCodeInvalidMsg:         "无效的消息格式",
	ErrCodeRateLimit:          "请求过于频繁",
	ErrCodeUnauthorized:       "身份校验失败",
	ErrCodeSessionNotFound:    "会话不存在",
	ErrCodeSessionFull:        "会话已满",
	ErrCodePlayerNotFound:     "您不在会话中",
	ErrCodeAlreadyStarted:     "游戏已开始",
	ErrCodeNotEnoughPlayers:   "人数不足",
	ErrCodeNotCreator:         "只有房主可以执行该操作",
	ErrCodeNotActive:          "游戏未在进行中",
	ErrCodeUnknownGame:        "未知的游戏类型",
	ErrCodeNotYourTurn:        "还没轮到您",
	ErrCodeIllegalMove:        "非法操作",
	ErrCodeDuplicateInput:     "重复或已使用的输入",
	ErrCodeOutOfRange:         "输入超出范围",
	ErrCodeAlreadyTerminal:    "游戏已结束",
	ErrCodeAlreadyResolved:    "该回合已结算",
	ErrCodeFatalInconsistency: "会话状态异常",
	ErrCodeStorageUnavailable: "排行榜暂不可用",
	ErrCodeServerMaintenance:  "服务器维护中",
}
