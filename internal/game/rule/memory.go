package rule

import (
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const (
	defaultMemoryPairs = 8
	memoryMatchScore   = 1
	hiddenCard         = -1
)

// MemoryData 翻牌配对
type MemoryData struct {
	Cards    []int  `json:"cards"`
	Matched  []bool `json:"matched"`
	Owner    []int  `json:"owner"`               // 配对成功的座位，未配对为 -1
	Pending  []int  `json:"pending"`             // 本回合已翻开、尚未配对的牌
	LastMiss []int  `json:"last_miss,omitempty"` // 上一次失败的两张牌
	Pairs    int    `json:"pairs"`
}

func (d *MemoryData) Clone() Data {
	return &MemoryData{
		Cards:    slices.Clone(d.Cards),
		Matched:  slices.Clone(d.Matched),
		Owner:    slices.Clone(d.Owner),
		Pending:  slices.Clone(d.Pending),
		LastMiss: slices.Clone(d.LastMiss),
		Pairs:    d.Pairs,
	}
}

// MemoryView 公开视图，未翻开的牌面为 -1
type MemoryView struct {
	Faces    []int  `json:"faces"`
	Matched  []bool `json:"matched"`
	Owner    []int  `json:"owner"`
	Pending  []int  `json:"pending"`
	LastMiss []int  `json:"last_miss,omitempty"`
	Pairs    int    `json:"pairs"`
}

func (d *MemoryData) Public() any {
	faces := make([]int, len(d.Cards))
	for i := range faces {
		faces[i] = hiddenCard
		if d.Matched[i] || slices.Contains(d.Pending, i) || slices.Contains(d.LastMiss, i) {
			faces[i] = d.Cards[i]
		}
	}
	return MemoryView{
		Faces:    faces,
		Matched:  slices.Clone(d.Matched),
		Owner:    slices.Clone(d.Owner),
		Pending:  slices.Clone(d.Pending),
		LastMiss: slices.Clone(d.LastMiss),
		Pairs:    d.Pairs,
	}
}

// NewMemoryData 按给定牌面创建牌局，用于测试和回放
func NewMemoryData(cards []int) *MemoryData {
	d := &MemoryData{
		Cards:   slices.Clone(cards),
		Matched: make([]bool, len(cards)),
		Owner:   make([]int, len(cards)),
	}
	for i := range d.Owner {
		d.Owner[i] = -1
	}
	return d
}

type memory struct {
	pairs        int
	turnDuration time.Duration
}

// NewMemory 创建翻牌配对规则。配对成功后同一玩家继续翻牌，失败则轮换。
func NewMemory(pairs int, turnDuration time.Duration) Rules {
	if pairs <= 0 {
		pairs = defaultMemoryPairs
	}
	return &memory{pairs: pairs, turnDuration: turnDuration}
}

func (m *memory) Type() GameType { return MemoryMatch }

func (m *memory) Policy() Policy {
	return Policy{MinPlayers: 1, MaxPlayers: 4, TurnBased: true, TurnDuration: m.turnDuration}
}

func (m *memory) Initialize(_ []Player, seed uint64) (Data, error) {
	cards := make([]int, 0, m.pairs*2)
	for v := range m.pairs {
		cards = append(cards, v, v)
	}
	r := newRand(seed, 1)
	r.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return NewMemoryData(cards), nil
}

func (m *memory) Validate(data Data, mv Move) error {
	d, ok := data.(*MemoryData)
	if !ok {
		return wrongData("memory", data)
	}
	if m.IsTerminal(d) {
		return apperrors.ErrAlreadyTerminal
	}
	if mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	if mv.Action.Type != ActionFlip {
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
	idx := mv.Action.Index
	if idx < 0 || idx >= len(d.Cards) {
		return fmt.Errorf("%w: card %d", apperrors.ErrOutOfRange, idx)
	}
	if d.Matched[idx] || slices.Contains(d.Pending, idx) {
		return fmt.Errorf("%w: card %d already revealed", apperrors.ErrDuplicateInput, idx)
	}
	return nil
}

func (m *memory) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*MemoryData)
	if !ok {
		return Result{}, wrongData("memory", data)
	}
	next := d.Clone().(*MemoryData)

	// 超时未翻满两张：盖回已翻开的牌并轮换
	if mv.IsTimeUp() {
		next.Pending = nil
		next.LastMiss = nil
		return Result{Data: next, AdvanceTurn: true}, nil
	}

	idx := mv.Action.Index
	if len(next.Pending) == 0 {
		next.Pending = []int{idx}
		next.LastMiss = nil
		return Result{Data: next}, nil
	}

	first := next.Pending[0]
	next.Pending = nil
	if next.Cards[first] == next.Cards[idx] {
		next.Matched[first], next.Matched[idx] = true, true
		next.Owner[first], next.Owner[idx] = mv.Actor, mv.Actor
		next.Pairs++
		return Result{Data: next, ScoreDelta: memoryMatchScore, ContinueTurn: true}, nil
	}
	next.LastMiss = []int{first, idx}
	return Result{Data: next, AdvanceTurn: true}, nil
}

func (m *memory) IsTerminal(data Data) bool {
	d, ok := data.(*MemoryData)
	if !ok {
		return false
	}
	for _, matched := range d.Matched {
		if !matched {
			return false
		}
	}
	return true
}

func (m *memory) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
