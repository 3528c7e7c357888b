package rule

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

// GameType 游戏类型
type GameType string

const (
	TicTacToe     GameType = "tictactoe" // 井字棋
	MemoryMatch   GameType = "memory"    // 翻牌配对
	Quiz          GameType = "quiz"      // 抢答（全员作答）
	Trivia        GameType = "trivia"    // 问答（轮流作答）
	WordChain     GameType = "wordchain" // 单词接龙
	Drawing       GameType = "drawing"   // 你画我猜
	SlidingPuzzle GameType = "puzzle"    // 数字华容道
	Snake         GameType = "snake"     // 贪吃蛇（单人）
)

// ActionType 动作类型
type ActionType string

const (
	ActionMark   ActionType = "mark"   // 井字棋落子
	ActionFlip   ActionType = "flip"   // 翻牌
	ActionAnswer ActionType = "answer" // 答题
	ActionWord   ActionType = "word"   // 接龙单词
	ActionDraw   ActionType = "draw"   // 提交画作
	ActionGuess  ActionType = "guess"  // 猜词
	ActionSlide  ActionType = "slide"  // 滑动方块
	ActionSteer  ActionType = "steer"  // 转向
	ActionTick   ActionType = "tick"   // 前进一步
	ActionTimeUp ActionType = "timeup" // 回合超时（由调度器合成）
)

// Direction 方向
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Action 玩家提交的结构化动作
type Action struct {
	ID        string     `json:"id,omitempty"`
	Type      ActionType `json:"type"`
	TurnSeq   uint64     `json:"turn_seq,omitempty"`
	Index     int        `json:"index,omitempty"`
	Option    int        `json:"option,omitempty"`
	Text      string     `json:"text,omitempty"`
	Drawing   string     `json:"drawing,omitempty"`
	Direction Direction  `json:"direction,omitempty"`
}

// Player 规则可见的玩家信息
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Move 一次动作及其回合上下文
type Move struct {
	PlayerID  string `json:"player_id"`
	Actor     int    `json:"actor"`               // 发起者座位
	Current   int    `json:"current"`             // 当前回合座位
	Connected []bool `json:"connected,omitempty"` // 各座位是否在线，nil 表示全部在线
	Action    Action `json:"action"`
}

// IsTimeUp 是否为超时动作
func (m Move) IsTimeUp() bool {
	return m.Action.Type == ActionTimeUp
}

// IsConnected 座位 i 是否在线
func (m Move) IsConnected(i int) bool {
	if m.Connected == nil || i < 0 || i >= len(m.Connected) {
		return true
	}
	return m.Connected[i]
}

// Data 游戏私有数据
type Data interface {
	Clone() Data
}

// PublicViewer 由需要隐藏部分数据的游戏实现（例如未翻开的牌）
type PublicViewer interface {
	Public() any
}

// PrivateViewer 由需要给单个玩家额外信息的游戏实现（例如画手可见的目标词）
type PrivateViewer interface {
	PrivateView(actor, current int) any
}

// Result 动作执行结果
type Result struct {
	Data        Data
	ScoreDelta  int  // 加到发起者分数上
	AdvanceTurn bool // 轮换到下一位玩家并开始新回合

	// ContinueTurn 同一玩家获得新的回合（新的 turnSeq 和完整计时）。
	// 两者都为 false 时回合未结束，截止时间保持不变。
	ContinueTurn bool
}

// Policy 游戏的人数与计时策略
type Policy struct {
	MinPlayers   int
	MaxPlayers   int
	TurnBased    bool          // 推进时是否轮换当前玩家
	TurnDuration time.Duration // 0 表示不计时
}

// Timed 是否有回合计时
func (p Policy) Timed() bool {
	return p.TurnDuration > 0
}

// SinglePlayer 是否为单人游戏
func (p Policy) SinglePlayer() bool {
	return p.MaxPlayers == 1
}

// Standing 最终排名条目
type Standing struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Rules 游戏规则
type Rules interface {
	Type() GameType
	Policy() Policy
	Initialize(players []Player, seed uint64) (Data, error)
	Validate(data Data, mv Move) error
	Apply(data Data, mv Move) (Result, error)
	IsTerminal(data Data) bool
	FinalScores(data Data, players []Player) []Standing
}

// PublicView 返回对所有玩家可见的数据
func PublicView(d Data) any {
	if v, ok := d.(PublicViewer); ok {
		return v.Public()
	}
	return d
}

// PrivateView 返回某个玩家的专属视图，未实现时等同 PublicView
func PrivateView(d Data, actor, current int) any {
	if v, ok := d.(PrivateViewer); ok {
		return v.PrivateView(actor, current)
	}
	return PublicView(d)
}

// RankByScore 按分数降序排名，同分同名次，同分时按座位顺序输出
func RankByScore(players []Player) []Standing {
	order := make([]int, len(players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return players[order[a]].Score > players[order[b]].Score
	})

	standings := make([]Standing, len(order))
	for pos, idx := range order {
		p := players[idx]
		rank := pos + 1
		if pos > 0 && standings[pos-1].Score == p.Score {
			rank = standings[pos-1].Rank
		}
		standings[pos] = Standing{PlayerID: p.ID, Name: p.Name, Score: p.Score, Rank: rank}
	}
	return standings
}

// newRand 由种子生成确定性随机源，stream 用于区分同一种子下的不同用途
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream^0x9e3779b97f4a7c15))
}

func wrongData(want string, got Data) error {
	return fmt.Errorf("%w: expected %s data, got %T", apperrors.ErrFatalInconsistency, want, got)
}
