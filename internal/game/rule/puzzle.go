package rule

import (
	"fmt"
	"slices"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const (
	defaultPuzzleSize = 4
	emptyTile         = 0
	minPuzzleScore    = 10
	maxPuzzleScore    = 1000
)

// PuzzleData 数字华容道棋盘，0 表示空格
type PuzzleData struct {
	Size  int   `json:"size"`
	Tiles []int `json:"tiles"`
	Moves int   `json:"moves"`
}

func (d *PuzzleData) Clone() Data {
	return &PuzzleData{Size: d.Size, Tiles: slices.Clone(d.Tiles), Moves: d.Moves}
}

// Solved 是否已按升序排列且空格在最后
func (d *PuzzleData) Solved() bool {
	return IsSolvedTiles(d.Tiles)
}

func (d *PuzzleData) blank() int {
	return slices.Index(d.Tiles, emptyTile)
}

// IsSolvedTiles 检查 1..n-1 升序且空格在末尾
func IsSolvedTiles(tiles []int) bool {
	n := len(tiles)
	if n == 0 || tiles[n-1] != emptyTile {
		return false
	}
	for i := 0; i < n-1; i++ {
		if tiles[i] != i+1 {
			return false
		}
	}
	return true
}

// Solvable 奇偶校验：奇数边长要求逆序数为偶数；
// 偶数边长要求逆序数与空格所在行（自底向上从 1 计）之和为奇数
func Solvable(tiles []int, size int) bool {
	inversions := 0
	for i := range tiles {
		if tiles[i] == emptyTile {
			continue
		}
		for j := i + 1; j < len(tiles); j++ {
			if tiles[j] != emptyTile && tiles[i] > tiles[j] {
				inversions++
			}
		}
	}
	if size%2 == 1 {
		return inversions%2 == 0
	}
	blankRow := slices.Index(tiles, emptyTile) / size
	rowFromBottom := size - blankRow
	return (inversions+rowFromBottom)%2 == 1
}

// fixParity 交换两个相邻的非空方块，翻转逆序数的奇偶性
func fixParity(tiles []int) {
	for i := 0; i+1 < len(tiles); i++ {
		if tiles[i] != emptyTile && tiles[i+1] != emptyTile {
			tiles[i], tiles[i+1] = tiles[i+1], tiles[i]
			return
		}
	}
}

type puzzle struct {
	size int
}

// NewPuzzle 创建数字华容道规则，单人且不计时
func NewPuzzle(size int) Rules {
	if size < 2 {
		size = defaultPuzzleSize
	}
	return &puzzle{size: size}
}

func (p *puzzle) Type() GameType { return SlidingPuzzle }

func (p *puzzle) Policy() Policy {
	return Policy{MinPlayers: 1, MaxPlayers: 1}
}

func (p *puzzle) Initialize(_ []Player, seed uint64) (Data, error) {
	n := p.size * p.size
	tiles := make([]int, n)
	r := newRand(seed, 3)
	for {
		for i := range n - 1 {
			tiles[i] = i + 1
		}
		tiles[n-1] = emptyTile
		r.Shuffle(n, func(i, j int) { tiles[i], tiles[j] = tiles[j], tiles[i] })
		if !Solvable(tiles, p.size) {
			fixParity(tiles)
		}
		if !IsSolvedTiles(tiles) {
			break
		}
	}
	return &PuzzleData{Size: p.size, Tiles: tiles}, nil
}

func (p *puzzle) Validate(data Data, mv Move) error {
	d, ok := data.(*PuzzleData)
	if !ok {
		return wrongData("puzzle", data)
	}
	if d.Solved() {
		return apperrors.ErrAlreadyTerminal
	}
	if mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	if mv.Action.Type != ActionSlide {
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
	idx := mv.Action.Index
	if idx < 0 || idx >= len(d.Tiles) {
		return fmt.Errorf("%w: tile %d", apperrors.ErrOutOfRange, idx)
	}
	if !adjacent(idx, d.blank(), d.Size) {
		return fmt.Errorf("%w: tile %d is not next to the empty slot", apperrors.ErrIllegalMove, idx)
	}
	return nil
}

func adjacent(a, b, size int) bool {
	ar, ac := a/size, a%size
	br, bc := b/size, b%size
	dr, dc := ar-br, ac-bc
	return (dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))
}

func (p *puzzle) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*PuzzleData)
	if !ok {
		return Result{}, wrongData("puzzle", data)
	}
	next := d.Clone().(*PuzzleData)
	if mv.IsTimeUp() {
		return Result{Data: next}, nil
	}

	blank := next.blank()
	idx := mv.Action.Index
	next.Tiles[blank], next.Tiles[idx] = next.Tiles[idx], next.Tiles[blank]
	next.Moves++

	delta := 0
	if next.Solved() {
		delta = max(minPuzzleScore, maxPuzzleScore-next.Moves)
	}
	return Result{Data: next, ScoreDelta: delta}, nil
}

func (p *puzzle) IsTerminal(data Data) bool {
	d, ok := data.(*PuzzleData)
	if !ok {
		return false
	}
	return d.Solved()
}

func (p *puzzle) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
