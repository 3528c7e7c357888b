package rule

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/palemoky/turn-party/internal/apperrors"
)

// WordChainData 已接受的单词，按接龙顺序
type WordChainData struct {
	Words []string `json:"words"`
}

func (d *WordChainData) Clone() Data {
	return &WordChainData{Words: slices.Clone(d.Words)}
}

// LastLetter 下一个单词需要的首字母，尚无单词时为空
func (d *WordChainData) LastLetter() string {
	if len(d.Words) == 0 {
		return ""
	}
	last := d.Words[len(d.Words)-1]
	r, _ := utf8.DecodeLastRuneInString(last)
	return string(r)
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type wordChain struct {
	turnDuration time.Duration
}

// NewWordChain 创建单词接龙规则。接龙不会自行结束，由房主调用 End 结束。
func NewWordChain(turnDuration time.Duration) Rules {
	return &wordChain{turnDuration: turnDuration}
}

func (w *wordChain) Type() GameType { return WordChain }

func (w *wordChain) Policy() Policy {
	return Policy{MinPlayers: 2, MaxPlayers: 8, TurnBased: true, TurnDuration: w.turnDuration}
}

func (w *wordChain) Initialize(_ []Player, _ uint64) (Data, error) {
	return &WordChainData{}, nil
}

func (w *wordChain) Validate(data Data, mv Move) error {
	d, ok := data.(*WordChainData)
	if !ok {
		return wrongData("wordchain", data)
	}
	if mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	if mv.Action.Type != ActionWord {
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
	word := normalizeWord(mv.Action.Text)
	if word == "" {
		return fmt.Errorf("%w: empty word", apperrors.ErrIllegalMove)
	}
	if slices.Contains(d.Words, word) {
		return fmt.Errorf("%w: %q already used", apperrors.ErrDuplicateInput, word)
	}
	if need := d.LastLetter(); need != "" && !strings.HasPrefix(word, need) {
		return fmt.Errorf("%w: %q must start with %q", apperrors.ErrIllegalMove, word, need)
	}
	return nil
}

func (w *wordChain) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*WordChainData)
	if !ok {
		return Result{}, wrongData("wordchain", data)
	}
	next := d.Clone().(*WordChainData)
	if mv.IsTimeUp() {
		return Result{Data: next, AdvanceTurn: true}, nil
	}
	next.Words = append(next.Words, normalizeWord(mv.Action.Text))
	return Result{Data: next, ScoreDelta: 1, AdvanceTurn: true}, nil
}

func (w *wordChain) IsTerminal(Data) bool { return false }

func (w *wordChain) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
