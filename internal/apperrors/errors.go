package apperrors

import (
	"errors"

	"github.com/palemoky/turn-party/internal/protocol"
)

// Kind 错误分类
type Kind int

const (
	KindValidation    Kind = iota // 非法动作，只通知发起者，不改变状态
	KindStateConflict             // 回合或会话已结算
	KindNotFound                  // 会话或玩家不存在
	KindFatal                     // 不变量被破坏
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindStateConflict:
		return "StateConflict"
	case KindNotFound:
		return "NotFoundError"
	case KindFatal:
		return "FatalInconsistency"
	default:
		return "Unknown"
	}
}

// GameError 游戏错误
type GameError struct {
	Code    int
	Kind    Kind
	Reason  string // 机器可读的拒绝原因
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	// 动作校验
	ErrNotYourTurn     = newError(protocol.ErrCodeNotYourTurn, KindValidation, "NotYourTurn")
	ErrIllegalMove     = newError(protocol.ErrCodeIllegalMove, KindValidation, "IllegalMove")
	ErrDuplicateInput  = newError(protocol.ErrCodeDuplicateInput, KindValidation, "DuplicateOrUsedInput")
	ErrOutOfRange      = newError(protocol.ErrCodeOutOfRange, KindValidation, "OutOfRange")
	ErrAlreadyTerminal = newError(protocol.ErrCodeAlreadyTerminal, KindValidation, "AlreadyTerminal")

	// 会话生命周期
	ErrSessionFull      = newError(protocol.ErrCodeSessionFull, KindValidation, "SessionFull")
	ErrAlreadyStarted   = newError(protocol.ErrCodeAlreadyStarted, KindValidation, "AlreadyStarted")
	ErrNotEnoughPlayers = newError(protocol.ErrCodeNotEnoughPlayers, KindValidation, "NotEnoughPlayers")
	ErrNotCreator       = newError(protocol.ErrCodeNotCreator, KindValidation, "NotCreator")
	ErrNotActive        = newError(protocol.ErrCodeNotActive, KindStateConflict, "NotActive")
	ErrUnknownGameType  = newError(protocol.ErrCodeUnknownGame, KindValidation, "UnknownGameType")

	// 状态冲突
	ErrAlreadyResolved = newError(protocol.ErrCodeAlreadyResolved, KindStateConflict, "AlreadyResolved")

	// 不存在
	ErrSessionNotFound = newError(protocol.ErrCodeSessionNotFound, KindNotFound, "NotFound")
	ErrPlayerNotFound  = newError(protocol.ErrCodePlayerNotFound, KindNotFound, "PlayerNotFound")

	// 内部
	ErrFatalInconsistency = newError(protocol.ErrCodeFatalInconsistency, KindFatal, "FatalInconsistency")
)

func newError(code int, kind Kind, reason string) *GameError {
	return &GameError{Code: code, Kind: kind, Reason: reason, Message: protocol.ErrorMessages[code]}
}

// As 提取错误链中的 GameError，非游戏错误返回 nil
func As(err error) *GameError {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge
	}
	return nil
}

// KindOf 返回错误分类，非游戏错误视为 KindFatal
func KindOf(err error) Kind {
	if ge := As(err); ge != nil {
		return ge.Kind
	}
	return KindFatal
}

// CodeOf 返回错误码
func CodeOf(err error) int {
	if ge := As(err); ge != nil {
		return ge.Code
	}
	return protocol.ErrCodeUnknown
}

// ReasonOf 返回拒绝原因
func ReasonOf(err error) string {
	if ge := As(err); ge != nil {
		return ge.Reason
	}
	return "Unknown"
}
