package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/turn-party/internal/apperrors"
)

var testQuestions = []Question{
	{Prompt: "1+1", Options: []string{"1", "2", "3"}, Correct: 1},
	{Prompt: "2+2", Options: []string{"4", "5"}, Correct: 0},
}

func answer(actor, current, option int) Move {
	return move(actor, current, Action{Type: ActionAnswer, Option: option})
}

func TestQuiz_AllRespond(t *testing.T) {
	t.Parallel()

	r := NewQuiz(StaticQuestions(testQuestions), DefaultTurnDuration)
	d := NewQuizData(cloneQuestions(testQuestions), 2)

	// 座位 1 不是当前玩家也可以作答
	require.NoError(t, r.Validate(d, answer(1, 0, 1)))
	res, err := r.Apply(d, answer(1, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, quizCorrectScore, res.ScoreDelta)
	assert.False(t, res.AdvanceTurn)
	assert.Equal(t, 0, res.Data.(*QuizData).Index)

	assert.ErrorIs(t, r.Validate(res.Data, answer(1, 0, 0)), apperrors.ErrDuplicateInput)

	res, err = r.Apply(res.Data, answer(0, 0, 2))
	require.NoError(t, err)
	assert.Zero(t, res.ScoreDelta)
	assert.True(t, res.AdvanceTurn)
	next := res.Data.(*QuizData)
	assert.Equal(t, 1, next.Index)
	assert.Equal(t, []int{noAnswer, noAnswer}, next.Answers)
	assert.Equal(t, []int{0, 1}, next.Correct)
}

func TestQuiz_DisconnectedPlayersDoNotBlock(t *testing.T) {
	t.Parallel()

	r := NewQuiz(StaticQuestions(testQuestions), DefaultTurnDuration)
	d := NewQuizData(cloneQuestions(testQuestions), 3)

	m := answer(0, 0, 1)
	m.Connected = []bool{true, false, false}
	res, err := r.Apply(d, m)
	require.NoError(t, err)
	assert.True(t, res.AdvanceTurn)
}

func TestQuiz_OutOfRangeOption(t *testing.T) {
	t.Parallel()

	r := NewQuiz(StaticQuestions(testQuestions), DefaultTurnDuration)
	d := NewQuizData(cloneQuestions(testQuestions), 1)

	assert.ErrorIs(t, r.Validate(d, answer(0, 0, 3)), apperrors.ErrOutOfRange)
	assert.ErrorIs(t, r.Validate(d, answer(0, 0, -1)), apperrors.ErrOutOfRange)
}

func TestQuiz_TimeUpAdvancesToTerminal(t *testing.T) {
	t.Parallel()

	r := NewQuiz(StaticQuestions(testQuestions), DefaultTurnDuration)
	var data Data = NewQuizData(cloneQuestions(testQuestions), 2)

	for range testQuestions {
		res, err := r.Apply(data, move(0, 0, Action{Type: ActionTimeUp}))
		require.NoError(t, err)
		data = res.Data
	}
	assert.True(t, r.IsTerminal(data))
	assert.ErrorIs(t, r.Validate(data, answer(0, 0, 0)), apperrors.ErrAlreadyTerminal)
}

func TestTrivia_OnlyCurrentPlayerAnswers(t *testing.T) {
	t.Parallel()

	r := NewTrivia(StaticQuestions(testQuestions), DefaultTurnDuration)
	d := NewQuizData(cloneQuestions(testQuestions), 2)

	assert.ErrorIs(t, r.Validate(d, answer(1, 0, 1)), apperrors.ErrNotYourTurn)

	res, err := r.Apply(d, answer(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, quizCorrectScore, res.ScoreDelta)
	assert.True(t, res.AdvanceTurn)
	assert.Equal(t, 1, res.Data.(*QuizData).Index)
	assert.True(t, r.Policy().TurnBased)
	assert.False(t, NewQuiz(DefaultQuestions, 0).Policy().TurnBased)
}

func TestQuiz_PublicViewHidesAnswer(t *testing.T) {
	t.Parallel()

	d := NewQuizData(cloneQuestions(testQuestions), 2)
	d.Answers[1] = 0

	view := PublicView(d).(QuizView)
	require.NotNil(t, view.Current)
	assert.Equal(t, "1+1", view.Current.Prompt)
	assert.Equal(t, []bool{false, true}, view.Answered)
	assert.Equal(t, 2, view.Total)
}

func TestStaticQuestions_SeededOrder(t *testing.T) {
	t.Parallel()

	a, err := DefaultQuestions.Questions(Quiz, 7)
	require.NoError(t, err)
	b, err := DefaultQuestions.Questions(Quiz, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, len(DefaultQuestions))

	_, err = StaticQuestions(nil).Questions(Quiz, 1)
	assert.Error(t, err)
}

func TestQuiz_InitializeWithoutSource(t *testing.T) {
	t.Parallel()

	_, err := NewQuiz(nil, DefaultTurnDuration).Initialize(twoPlayers(), 1)
	assert.Error(t, err)
}

func cloneQuestions(qs []Question) []Question {
	return NewQuizData(qs, 0).Clone().(*QuizData).Questions
}
