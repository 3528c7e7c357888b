package rule

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const (
	quizCorrectScore = 10
	noAnswer         = -1
)

// Question 一道题目
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// QuestionSource 外部题库
type QuestionSource interface {
	Questions(gameType GameType, seed uint64) ([]Question, error)
}

// StaticQuestions 固定题库，seed 决定出题顺序
type StaticQuestions []Question

func (q StaticQuestions) Questions(_ GameType, seed uint64) ([]Question, error) {
	if len(q) == 0 {
		return nil, errors.New("题库为空")
	}
	out := make([]Question, len(q))
	for i, question := range q {
		question.Options = slices.Clone(question.Options)
		out[i] = question
	}
	r := newRand(seed, 2)
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

// QuizData 题目进度与作答情况
type QuizData struct {
	Questions []Question `json:"questions"`
	Index     int        `json:"index"`
	Answers   []int      `json:"answers"` // 当前题目各座位的作答，-1 表示未作答
	Correct   []int      `json:"correct"` // 各座位累计答对题数
}

func (d *QuizData) Clone() Data {
	qs := make([]Question, len(d.Questions))
	for i, q := range d.Questions {
		q.Options = slices.Clone(q.Options)
		qs[i] = q
	}
	return &QuizData{
		Questions: qs,
		Index:     d.Index,
		Answers:   slices.Clone(d.Answers),
		Correct:   slices.Clone(d.Correct),
	}
}

// QuestionView 不含正确答案的题目
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// QuizView 公开视图
type QuizView struct {
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Current  *QuestionView `json:"current,omitempty"`
	Answered []bool        `json:"answered"`
	Correct  []int         `json:"correct"`
}

func (d *QuizData) Public() any {
	view := QuizView{
		Index:    d.Index,
		Total:    len(d.Questions),
		Answered: make([]bool, len(d.Answers)),
		Correct:  slices.Clone(d.Correct),
	}
	for i, a := range d.Answers {
		view.Answered[i] = a != noAnswer
	}
	if d.Index < len(d.Questions) {
		q := d.Questions[d.Index]
		view.Current = &QuestionView{Prompt: q.Prompt, Options: slices.Clone(q.Options)}
	}
	return view
}

func (d *QuizData) nextQuestion() {
	d.Index++
	for i := range d.Answers {
		d.Answers[i] = noAnswer
	}
}

// NewQuizData 按给定题目创建对局，用于测试和回放
func NewQuizData(questions []Question, players int) *QuizData {
	d := &QuizData{
		Questions: questions,
		Answers:   make([]int, players),
		Correct:   make([]int, players),
	}
	for i := range d.Answers {
		d.Answers[i] = noAnswer
	}
	return d
}

// quiz 同时实现 Quiz（全员作答）与 Trivia（当前玩家作答）
type quiz struct {
	typ             GameType
	singleResponder bool
	source          QuestionSource
	turnDuration    time.Duration
}

// NewQuiz 创建全员作答的抢答规则：所有在线玩家答完或超时后进入下一题
func NewQuiz(source QuestionSource, turnDuration time.Duration) Rules {
	return &quiz{typ: Quiz, source: source, turnDuration: turnDuration}
}

// NewTrivia 创建轮流作答的问答规则：当前玩家答完或超时后换题并轮换
func NewTrivia(source QuestionSource, turnDuration time.Duration) Rules {
	return &quiz{typ: Trivia, singleResponder: true, source: source, turnDuration: turnDuration}
}

func (q *quiz) Type() GameType { return q.typ }

func (q *quiz) Policy() Policy {
	return Policy{MinPlayers: 1, MaxPlayers: 8, TurnBased: q.singleResponder, TurnDuration: q.turnDuration}
}

func (q *quiz) Initialize(players []Player, seed uint64) (Data, error) {
	if q.source == nil {
		return nil, errors.New("未配置题库")
	}
	questions, err := q.source.Questions(q.typ, seed)
	if err != nil {
		return nil, fmt.Errorf("加载题目失败: %w", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("题库为空")
	}
	return NewQuizData(questions, len(players)), nil
}

func (q *quiz) Validate(data Data, mv Move) error {
	d, ok := data.(*QuizData)
	if !ok {
		return wrongData("quiz", data)
	}
	if q.IsTerminal(d) {
		return apperrors.ErrAlreadyTerminal
	}
	if q.singleResponder && mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	if mv.Action.Type != ActionAnswer {
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
	if mv.Actor < 0 || mv.Actor >= len(d.Answers) {
		return fmt.Errorf("%w: seat %d", apperrors.ErrOutOfRange, mv.Actor)
	}
	question := d.Questions[d.Index]
	if mv.Action.Option < 0 || mv.Action.Option >= len(question.Options) {
		return fmt.Errorf("%w: option %d", apperrors.ErrOutOfRange, mv.Action.Option)
	}
	if d.Answers[mv.Actor] != noAnswer {
		return fmt.Errorf("%w: question %d already answered", apperrors.ErrDuplicateInput, d.Index)
	}
	return nil
}

func (q *quiz) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*QuizData)
	if !ok {
		return Result{}, wrongData("quiz", data)
	}
	next := d.Clone().(*QuizData)

	if mv.IsTimeUp() {
		next.nextQuestion()
		return Result{Data: next, AdvanceTurn: true}, nil
	}

	delta := 0
	next.Answers[mv.Actor] = mv.Action.Option
	if mv.Action.Option == next.Questions[next.Index].Correct {
		delta = quizCorrectScore
		next.Correct[mv.Actor]++
	}

	if q.singleResponder || allAnswered(next, mv) {
		next.nextQuestion()
		return Result{Data: next, ScoreDelta: delta, AdvanceTurn: true}, nil
	}
	return Result{Data: next, ScoreDelta: delta}, nil
}

func allAnswered(d *QuizData, mv Move) bool {
	for i, a := range d.Answers {
		if a == noAnswer && mv.IsConnected(i) {
			return false
		}
	}
	return true
}

func (q *quiz) IsTerminal(data Data) bool {
	d, ok := data.(*QuizData)
	if !ok {
		return false
	}
	return d.Index >= len(d.Questions)
}

func (q *quiz) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
