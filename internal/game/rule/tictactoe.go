package rule

import (
	"fmt"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

// Mark 棋子
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// winLines 三行、三列、两条对角线
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// TicTacToeData 井字棋棋盘
type TicTacToeData struct {
	Board [9]Mark `json:"board"`
	Moves int     `json:"moves"`
}

func (d *TicTacToeData) Clone() Data {
	c := *d
	return &c
}

// MarkFor 座位 0 执 X，座位 1 执 O
func MarkFor(seat int) Mark {
	if seat == 0 {
		return MarkX
	}
	return MarkO
}

// WinnerOf 返回连成一线的棋子，没有则返回 MarkEmpty
func WinnerOf(board [9]Mark) Mark {
	for _, line := range winLines {
		a := board[line[0]]
		if a != MarkEmpty && a == board[line[1]] && a == board[line[2]] {
			return a
		}
	}
	return MarkEmpty
}

func boardFull(board [9]Mark) bool {
	for _, m := range board {
		if m == MarkEmpty {
			return false
		}
	}
	return true
}

type ticTacToe struct {
	turnDuration time.Duration
}

// NewTicTacToe 创建井字棋规则
func NewTicTacToe(turnDuration time.Duration) Rules {
	return &ticTacToe{turnDuration: turnDuration}
}

func (t *ticTacToe) Type() GameType { return TicTacToe }

func (t *ticTacToe) Policy() Policy {
	return Policy{MinPlayers: 2, MaxPlayers: 2, TurnBased: true, TurnDuration: t.turnDuration}
}

func (t *ticTacToe) Initialize(players []Player, _ uint64) (Data, error) {
	if len(players) != 2 {
		return nil, fmt.Errorf("井字棋需要 2 名玩家，当前 %d", len(players))
	}
	return &TicTacToeData{}, nil
}

func (t *ticTacToe) Validate(data Data, mv Move) error {
	d, ok := data.(*TicTacToeData)
	if !ok {
		return wrongData("tictactoe", data)
	}
	if t.IsTerminal(d) {
		return apperrors.ErrAlreadyTerminal
	}
	if mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	if mv.Action.Type != ActionMark {
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
	if mv.Action.Index < 0 || mv.Action.Index >= len(d.Board) {
		return fmt.Errorf("%w: cell %d", apperrors.ErrOutOfRange, mv.Action.Index)
	}
	if d.Board[mv.Action.Index] != MarkEmpty {
		return fmt.Errorf("%w: cell %d occupied", apperrors.ErrIllegalMove, mv.Action.Index)
	}
	return nil
}

func (t *ticTacToe) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*TicTacToeData)
	if !ok {
		return Result{}, wrongData("tictactoe", data)
	}
	next := d.Clone().(*TicTacToeData)
	if mv.IsTimeUp() {
		return Result{Data: next, AdvanceTurn: true}, nil
	}

	mark := MarkFor(mv.Actor)
	next.Board[mv.Action.Index] = mark
	next.Moves++

	delta := 0
	if WinnerOf(next.Board) == mark {
		delta = 1
	}
	return Result{Data: next, ScoreDelta: delta, AdvanceTurn: true}, nil
}

func (t *ticTacToe) IsTerminal(data Data) bool {
	d, ok := data.(*TicTacToeData)
	if !ok {
		return false
	}
	return WinnerOf(d.Board) != MarkEmpty || boardFull(d.Board)
}

// FinalScores 胜者第一；平局两人并列
func (t *ticTacToe) FinalScores(data Data, players []Player) []Standing {
	standings := RankByScore(players)
	d, ok := data.(*TicTacToeData)
	if !ok {
		return standings
	}
	winner := WinnerOf(d.Board)
	if winner == MarkEmpty {
		for i := range standings {
			standings[i].Rank = 1
		}
		return standings
	}

	winnerSeat := 0
	if winner == MarkO {
		winnerSeat = 1
	}
	if winnerSeat >= len(players) {
		return standings
	}
	out := make([]Standing, 0, len(players))
	for i, p := range players {
		s := Standing{PlayerID: p.ID, Name: p.Name, Score: p.Score, Rank: 2}
		if i == winnerSeat {
			s.Rank = 1
			out = append([]Standing{s}, out...)
			continue
		}
		out = append(out, s)
	}
	return out
}
