package rule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const drawingCorrectScore = 10

// WordSource 你画我猜的词库
type WordSource interface {
	Words() ([]string, error)
}

// StaticWords 固定词库
type StaticWords []string

func (w StaticWords) Words() ([]string, error) {
	if len(w) == 0 {
		return nil, errors.New("词库为空")
	}
	return slices.Clone(w), nil
}

// Judge 判断猜测是否命中目标词
type Judge interface {
	Correct(target, guess string) bool
}

// JudgeFunc 函数形式的 Judge
type JudgeFunc func(target, guess string) bool

func (f JudgeFunc) Correct(target, guess string) bool { return f(target, guess) }

// ExactJudge 忽略大小写与首尾空白的精确匹配
var ExactJudge = JudgeFunc(func(target, guess string) bool {
	return strings.EqualFold(strings.TrimSpace(target), strings.TrimSpace(guess))
})

// DrawingData 你画我猜的回合数据
type DrawingData struct {
	Pool    []string `json:"pool"`
	Seed    uint64   `json:"seed"`
	Round   int      `json:"round"`
	Rounds  int      `json:"rounds"`
	Word    string   `json:"word"`
	Drawing string   `json:"drawing,omitempty"`
	Solved  []bool   `json:"solved"`
	Misses  int      `json:"misses"` // 本回合猜错次数
}

func (d *DrawingData) Clone() Data {
	c := *d
	c.Pool = slices.Clone(d.Pool)
	c.Solved = slices.Clone(d.Solved)
	return &c
}

// DrawingView 公开视图，不含目标词
type DrawingView struct {
	Round   int    `json:"round"`
	Rounds  int    `json:"rounds"`
	Drawing string `json:"drawing,omitempty"`
	Solved  []bool `json:"solved"`
	Misses  int    `json:"misses"`
	Hint    int    `json:"hint"` // 目标词长度
	Word    string `json:"word,omitempty"`
}

func (d *DrawingData) Public() any {
	return DrawingView{
		Round:   d.Round,
		Rounds:  d.Rounds,
		Drawing: d.Drawing,
		Solved:  slices.Clone(d.Solved),
		Misses:  d.Misses,
		Hint:    len([]rune(d.Word)),
	}
}

// PrivateView 画手和已猜中的玩家可以看到目标词
func (d *DrawingData) PrivateView(actor, current int) any {
	view := d.Public().(DrawingView)
	if actor == current || (actor >= 0 && actor < len(d.Solved) && d.Solved[actor]) {
		view.Word = d.Word
	}
	return view
}

func (d *DrawingData) pickWord() {
	if len(d.Pool) == 0 {
		d.Word = ""
		return
	}
	r := newRand(d.Seed, uint64(100+d.Round))
	d.Word = d.Pool[r.IntN(len(d.Pool))]
}

func (d *DrawingData) nextRound() {
	d.Round++
	d.Drawing = ""
	d.Misses = 0
	for i := range d.Solved {
		d.Solved[i] = false
	}
	if d.Round < d.Rounds {
		d.pickWord()
	}
}

type drawing struct {
	words        WordSource
	judge        Judge
	turnDuration time.Duration
}

// NewDrawing 创建你画我猜规则。当前玩家为画手，每位玩家各画一轮。
func NewDrawing(words WordSource, judge Judge, turnDuration time.Duration) Rules {
	if judge == nil {
		judge = ExactJudge
	}
	return &drawing{words: words, judge: judge, turnDuration: turnDuration}
}

func (g *drawing) Type() GameType { return Drawing }

func (g *drawing) Policy() Policy {
	return Policy{MinPlayers: 2, MaxPlayers: 8, TurnBased: true, TurnDuration: g.turnDuration}
}

func (g *drawing) Initialize(players []Player, seed uint64) (Data, error) {
	if g.words == nil {
		return nil, errors.New("未配置词库")
	}
	pool, err := g.words.Words()
	if err != nil {
		return nil, fmt.Errorf("加载词库失败: %w", err)
	}
	if len(pool) == 0 {
		return nil, errors.New("词库为空")
	}
	d := &DrawingData{
		Pool:   pool,
		Seed:   seed,
		Rounds: len(players),
		Solved: make([]bool, len(players)),
	}
	d.pickWord()
	return d, nil
}

func (g *drawing) Validate(data Data, mv Move) error {
	d, ok := data.(*DrawingData)
	if !ok {
		return wrongData("drawing", data)
	}
	if g.IsTerminal(d) {
		return apperrors.ErrAlreadyTerminal
	}
	if mv.IsTimeUp() {
		if mv.Actor != mv.Current {
			return apperrors.ErrNotYourTurn
		}
		return nil
	}

	switch mv.Action.Type {
	case ActionDraw:
		if mv.Actor != mv.Current {
			return apperrors.ErrNotYourTurn
		}
		if strings.TrimSpace(mv.Action.Drawing) == "" {
			return fmt.Errorf("%w: empty drawing", apperrors.ErrIllegalMove)
		}
		return nil
	case ActionGuess:
		if mv.Actor == mv.Current {
			return fmt.Errorf("%w: drawer cannot guess", apperrors.ErrIllegalMove)
		}
		if mv.Actor < 0 || mv.Actor >= len(d.Solved) {
			return fmt.Errorf("%w: seat %d", apperrors.ErrOutOfRange, mv.Actor)
		}
		if d.Drawing == "" {
			return fmt.Errorf("%w: nothing drawn yet", apperrors.ErrIllegalMove)
		}
		if d.Solved[mv.Actor] {
			return fmt.Errorf("%w: already guessed", apperrors.ErrDuplicateInput)
		}
		if strings.TrimSpace(mv.Action.Text) == "" {
			return fmt.Errorf("%w: empty guess", apperrors.ErrIllegalMove)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
}

func (g *drawing) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*DrawingData)
	if !ok {
		return Result{}, wrongData("drawing", data)
	}
	next := d.Clone().(*DrawingData)

	if mv.IsTimeUp() {
		next.nextRound()
		return Result{Data: next, AdvanceTurn: true}, nil
	}

	if mv.Action.Type == ActionDraw {
		next.Drawing = mv.Action.Drawing
		return Result{Data: next}, nil
	}

	if !g.judge.Correct(next.Word, mv.Action.Text) {
		next.Misses++
		return Result{Data: next}, nil
	}
	next.Solved[mv.Actor] = true
	if allGuessed(next, mv) {
		next.nextRound()
		return Result{Data: next, ScoreDelta: drawingCorrectScore, AdvanceTurn: true}, nil
	}
	return Result{Data: next, ScoreDelta: drawingCorrectScore}, nil
}

func allGuessed(d *DrawingData, mv Move) bool {
	for i, solved := range d.Solved {
		if i == mv.Current || solved || !mv.IsConnected(i) {
			continue
		}
		return false
	}
	return true
}

func (g *drawing) IsTerminal(data Data) bool {
	d, ok := data.(*DrawingData)
	if !ok {
		return false
	}
	return d.Round >= d.Rounds
}

func (g *drawing) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
