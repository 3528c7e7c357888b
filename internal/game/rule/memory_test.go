package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/apperrors"
)

func flip(actor, idx int) Move {
	return move(actor, actor, Action{Type: ActionFlip, Index: idx})
}

func TestMemory_InitializeDealsPairs(t *testing.T) {
	t.Parallel()

	r := NewMemory(0, DefaultTurnDuration)
	data, err := r.Initialize(twoPlayers(), 42)
	require.NoError(t, err)

	d := data.(*MemoryData)
	require.Len(t, d.Cards, 16)
	counts := map[int]int{}
	for _, c := range d.Cards {
		counts[c]++
	}
	assert.Len(t, counts, 8)
	for face, n := range counts {
		assert.Equal(t, 2, n, "face %d", face)
	}
	assert.False(t, r.IsTerminal(d))
}

func TestMemory_MatchKeepsTurn(t *testing.T) {
	t.Parallel()

	r := NewMemory(3, DefaultTurnDuration)
	d := NewMemoryData([]int{0, 1, 2, 0, 1, 2})
	d.Cards[2], d.Cards[5] = 7, 7

	res, err := r.Apply(d, flip(0, 2))
	require.NoError(t, err)
	assert.False(t, res.AdvanceTurn)
	assert.False(t, res.ContinueTurn, "first flip does not start a new turn")
	assert.Zero(t, res.ScoreDelta)

	require.NoError(t, r.Validate(res.Data, flip(0, 5)))
	res, err = r.Apply(res.Data, flip(0, 5))
	require.NoError(t, err)
	assert.Positive(t, res.ScoreDelta)
	assert.False(t, res.AdvanceTurn)
	assert.True(t, res.ContinueTurn)

	next := res.Data.(*MemoryData)
	assert.True(t, next.Matched[2])
	assert.True(t, next.Matched[5])
	assert.Equal(t, 0, next.Owner[2])
	assert.Equal(t, 1, next.Pairs)
	assert.Empty(t, next.Pending)
}

func TestMemory_MismatchRotates(t *testing.T) {
	t.Parallel()

	r := NewMemory(3, DefaultTurnDuration)
	d := NewMemoryData([]int{0, 1, 2, 0, 1, 2})

	res, err := r.Apply(d, flip(0, 0))
	require.NoError(t, err)
	res, err = r.Apply(res.Data, flip(0, 1))
	require.NoError(t, err)

	assert.True(t, res.AdvanceTurn)
	assert.False(t, res.ContinueTurn)
	assert.Zero(t, res.ScoreDelta)
	next := res.Data.(*MemoryData)
	assert.Equal(t, []int{0, 1}, next.LastMiss)
	assert.False(t, next.Matched[0])
	assert.False(t, next.Matched[1])
}

func TestMemory_Validate(t *testing.T) {
	t.Parallel()

	r := NewMemory(3, DefaultTurnDuration)
	d := NewMemoryData([]int{0, 1, 2, 0, 1, 2})
	d.Matched[0], d.Matched[3] = true, true
	d.Pending = []int{1}

	assert.NoError(t, r.Validate(d, flip(0, 4)))
	assert.ErrorIs(t, r.Validate(d, flip(0, 0)), apperrors.ErrDuplicateInput)
	assert.ErrorIs(t, r.Validate(d, flip(0, 1)), apperrors.ErrDuplicateInput)
	assert.ErrorIs(t, r.Validate(d, flip(0, 6)), apperrors.ErrOutOfRange)
	assert.ErrorIs(t, r.Validate(d, move(1, 0, Action{Type: ActionFlip, Index: 4})), apperrors.ErrNotYourTurn)
}

func TestMemory_TimeUpHidesPending(t *testing.T) {
	t.Parallel()

	r := NewMemory(3, DefaultTurnDuration)
	d := NewMemoryData([]int{0, 1, 2, 0, 1, 2})
	d.Pending = []int{2}

	res, err := r.Apply(d, move(0, 0, Action{Type: ActionTimeUp}))
	require.NoError(t, err)
	assert.True(t, res.AdvanceTurn)
	assert.Empty(t, res.Data.(*MemoryData).Pending)
	assert.Equal(t, []int{2}, d.Pending, "input must stay untouched")
}

func TestMemory_PublicViewHidesFaces(t *testing.T) {
	t.Parallel()

	d := NewMemoryData([]int{0, 1, 0, 1})
	d.Matched[0], d.Matched[2] = true, true
	d.Pending = []int{3}

	view := PublicView(d).(MemoryView)
	assert.Equal(t, []int{0, hiddenCard, 0, 1}, view.Faces)
}

func TestMemory_TerminalWhenAllMatched(t *testing.T) {
	t.Parallel()

	r := NewMemory(1, DefaultTurnDuration)
	d := NewMemoryData([]int{0, 0})
	res, err := r.Apply(d, flip(0, 0))
	require.NoError(t, err)
	res, err = r.Apply(res.Data, flip(0, 1))
	require.NoError(t, err)

	assert.True(t, r.IsTerminal(res.Data))
	assert.ErrorIs(t, r.Validate(res.Data, flip(0, 0)), apperrors.ErrAlreadyTerminal)
}
