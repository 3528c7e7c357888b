package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/apperrors"
)

func threePlayers() []Player {
	return []Player{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}}
}

func newDrawingGame(t *testing.T) (Rules, *DrawingData) {
	t.Helper()
	r := NewDrawing(StaticWords{"cat"}, nil, DefaultDrawingDuration)
	data, err := r.Initialize(threePlayers(), 9)
	require.NoError(t, err)
	return r, data.(*DrawingData)
}

func TestDrawing_InitializePicksWord(t *testing.T) {
	t.Parallel()

	_, d := newDrawingGame(t)
	assert.Equal(t, "cat", d.Word)
	assert.Equal(t, 3, d.Rounds)
	assert.Len(t, d.Solved, 3)
}

func TestDrawing_GuessRequiresDrawing(t *testing.T) {
	t.Parallel()

	r, d := newDrawingGame(t)
	guess := move(1, 0, Action{Type: ActionGuess, Text: "cat"})
	assert.ErrorIs(t, r.Validate(d, guess), apperrors.ErrIllegalMove)

	draw := move(0, 0, Action{Type: ActionDraw, Drawing: "data:image/png;base64,AAAA"})
	require.NoError(t, r.Validate(d, draw))
	res, err := r.Apply(d, draw)
	require.NoError(t, err)
	assert.False(t, res.AdvanceTurn)
	require.NoError(t, r.Validate(res.Data, guess))
}

func TestDrawing_Validate(t *testing.T) {
	t.Parallel()

	r, d := newDrawingGame(t)
	d.Drawing = "img"
	d.Solved[2] = true

	assert.ErrorIs(t, r.Validate(d, move(1, 0, Action{Type: ActionDraw, Drawing: "x"})), apperrors.ErrNotYourTurn)
	assert.ErrorIs(t, r.Validate(d, move(0, 0, Action{Type: ActionGuess, Text: "cat"})), apperrors.ErrIllegalMove)
	assert.ErrorIs(t, r.Validate(d, move(2, 0, Action{Type: ActionGuess, Text: "cat"})), apperrors.ErrDuplicateInput)
	assert.ErrorIs(t, r.Validate(d, move(0, 0, Action{Type: ActionDraw})), apperrors.ErrIllegalMove)
	assert.ErrorIs(t, r.Validate(d, move(1, 0, Action{Type: ActionFlip})), apperrors.ErrIllegalMove)
}

func TestDrawing_RoundEndsWhenAllGuessed(t *testing.T) {
	t.Parallel()

	r, d := newDrawingGame(t)
	d.Drawing = "img"

	res, err := r.Apply(d, move(1, 0, Action{Type: ActionGuess, Text: "dog"}))
	require.NoError(t, err)
	assert.Zero(t, res.ScoreDelta)
	assert.Equal(t, 1, res.Data.(*DrawingData).Misses)

	res, err = r.Apply(res.Data, move(1, 0, Action{Type: ActionGuess, Text: " CAT "}))
	require.NoError(t, err)
	assert.Equal(t, drawingCorrectScore, res.ScoreDelta)
	assert.False(t, res.AdvanceTurn)

	res, err = r.Apply(res.Data, move(2, 0, Action{Type: ActionGuess, Text: "cat"}))
	require.NoError(t, err)
	assert.True(t, res.AdvanceTurn)

	next := res.Data.(*DrawingData)
	assert.Equal(t, 1, next.Round)
	assert.Empty(t, next.Drawing)
	assert.Equal(t, []bool{false, false, false}, next.Solved)
}

func TestDrawing_TimeUpEndsRoundUntilTerminal(t *testing.T) {
	t.Parallel()

	r, d := newDrawingGame(t)
	var data Data = d
	for seat := range 3 {
		res, err := r.Apply(data, move(seat, seat, Action{Type: ActionTimeUp}))
		require.NoError(t, err)
		assert.True(t, res.AdvanceTurn)
		data = res.Data
	}
	assert.True(t, r.IsTerminal(data))
}

func TestDrawing_ViewsHideWord(t *testing.T) {
	t.Parallel()

	_, d := newDrawingGame(t)
	d.Solved[2] = true

	public := PublicView(d).(DrawingView)
	assert.Empty(t, public.Word)
	assert.Equal(t, 3, public.Hint)

	assert.Equal(t, "cat", PrivateView(d, 0, 0).(DrawingView).Word)
	assert.Empty(t, PrivateView(d, 1, 0).(DrawingView).Word)
	assert.Equal(t, "cat", PrivateView(d, 2, 0).(DrawingView).Word)
}

func TestDrawing_WordChoiceIsSeeded(t *testing.T) {
	t.Parallel()

	r := NewDrawing(DefaultWords, ExactJudge, DefaultDrawingDuration)
	a, err := r.Initialize(threePlayers(), 123)
	require.NoError(t, err)
	b, err := r.Initialize(threePlayers(), 123)
	require.NoError(t, err)
	assert.Equal(t, a.(*DrawingData).Word, b.(*DrawingData).Word)
}

func TestDrawing_CustomJudge(t *testing.T) {
	t.Parallel()

	anything := JudgeFunc(func(_, _ string) bool { return true })
	r := NewDrawing(StaticWords{"cat"}, anything, DefaultDrawingDuration)
	data, err := r.Initialize(twoPlayers(), 1)
	require.NoError(t, err)
	data.(*DrawingData).Drawing = "img"

	res, err := r.Apply(data, move(1, 0, Action{Type: ActionGuess, Text: "whatever"}))
	require.NoError(t, err)
	assert.Equal(t, drawingCorrectScore, res.ScoreDelta)
	assert.True(t, res.AdvanceTurn)
}
