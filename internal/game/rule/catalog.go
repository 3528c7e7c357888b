package rule

import (
	"fmt"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const (
	// DefaultTurnDuration 计时游戏的默认回合时长
	DefaultTurnDuration = 30 * time.Second
	// DefaultDrawingDuration 你画我猜每轮的默认时长
	DefaultDrawingDuration = 60 * time.Second
)

// Options 构建规则集合的参数，零值字段使用默认值
type Options struct {
	TurnDuration   time.Duration
	TurnDurations  map[GameType]time.Duration
	QuestionSource QuestionSource
	WordSource     WordSource
	Judge          Judge
	SnakeWrap      bool
	SnakeSize      int
	PuzzleSize     int
	MemoryPairs    int
}

// Catalog 游戏类型到规则的映射
type Catalog struct {
	rules map[GameType]Rules
	order []GameType
}

// NewCatalog 按配置创建全部游戏规则
func NewCatalog(opts Options) *Catalog {
	if opts.TurnDuration <= 0 {
		opts.TurnDuration = DefaultTurnDuration
	}
	if opts.QuestionSource == nil {
		opts.QuestionSource = DefaultQuestions
	}
	if opts.WordSource == nil {
		opts.WordSource = DefaultWords
	}
	if opts.Judge == nil {
		opts.Judge = ExactJudge
	}

	duration := func(gt GameType, fallback time.Duration) time.Duration {
		if d, ok := opts.TurnDurations[gt]; ok && d > 0 {
			return d
		}
		return fallback
	}

	c := &Catalog{rules: make(map[GameType]Rules)}
	c.register(NewTicTacToe(duration(TicTacToe, opts.TurnDuration)))
	c.register(NewMemory(opts.MemoryPairs, duration(MemoryMatch, opts.TurnDuration)))
	c.register(NewQuiz(opts.QuestionSource, duration(Quiz, opts.TurnDuration)))
	c.register(NewTrivia(opts.QuestionSource, duration(Trivia, opts.TurnDuration)))
	c.register(NewWordChain(duration(WordChain, opts.TurnDuration)))
	c.register(NewDrawing(opts.WordSource, opts.Judge, duration(Drawing, DefaultDrawingDuration)))
	c.register(NewPuzzle(opts.PuzzleSize))
	c.register(NewSnake(opts.SnakeSize, opts.SnakeWrap))
	return c
}

func (c *Catalog) register(r Rules) {
	if _, exists := c.rules[r.Type()]; !exists {
		c.order = append(c.order, r.Type())
	}
	c.rules[r.Type()] = r
}

// Get 获取游戏规则
func (c *Catalog) Get(gt GameType) (Rules, error) {
	r, ok := c.rules[gt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownGameType, gt)
	}
	return r, nil
}

// Types 已注册的游戏类型，按注册顺序
func (c *Catalog) Types() []GameType {
	out := make([]GameType, len(c.order))
	copy(out, c.order)
	return out
}
