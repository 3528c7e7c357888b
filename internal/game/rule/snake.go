package rule

import (
	"fmt"
	"slices"
	"time"

	"github.com/palemoky/turn-party/internal/apperrors"
)

const (
	defaultSnakeSize  = 20
	snakeStartLength  = 3
	snakePointsPerLvl = 5
	snakeBaseInterval = 200 * time.Millisecond
	snakeLevelStep    = 20 * time.Millisecond
	snakeMinInterval  = 60 * time.Millisecond
)

// Point 棋盘坐标
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SnakeData 贪吃蛇状态，Body[0] 为蛇头
type SnakeData struct {
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Wrap    bool      `json:"wrap"`
	Seed    uint64    `json:"seed"`
	Body    []Point   `json:"body"`
	Heading Direction `json:"heading"` // 上一步实际移动的方向
	Next    Direction `json:"next"`    // 下一步将要移动的方向
	Food    *Point    `json:"food,omitempty"`
	Eaten   int       `json:"eaten"`
	Dead    bool      `json:"dead"`
}

func (d *SnakeData) Clone() Data {
	c := *d
	c.Body = slices.Clone(d.Body)
	if d.Food != nil {
		food := *d.Food
		c.Food = &food
	}
	return &c
}

// Level 每吃 5 个食物升一级
func (d *SnakeData) Level() int {
	return d.Eaten / snakePointsPerLvl
}

// Interval 当前等级下的前进间隔
func (d *SnakeData) Interval() time.Duration {
	return max(snakeMinInterval, snakeBaseInterval-time.Duration(d.Level())*snakeLevelStep)
}

func (d *SnakeData) full() bool {
	return len(d.Body) >= d.Width*d.Height
}

func (d *SnakeData) occupied(p Point) bool {
	return slices.Contains(d.Body, p)
}

// placeFood 在空闲格子中按种子选择食物位置，没有空闲格子时清空食物
func (d *SnakeData) placeFood() {
	free := make([]Point, 0, d.Width*d.Height-len(d.Body))
	for y := range d.Height {
		for x := range d.Width {
			if p := (Point{X: x, Y: y}); !d.occupied(p) {
				free = append(free, p)
			}
		}
	}
	if len(free) == 0 {
		d.Food = nil
		return
	}
	r := newRand(d.Seed, uint64(1000+d.Eaten))
	food := free[r.IntN(len(free))]
	d.Food = &food
}

func opposite(a, b Direction) bool {
	switch a {
	case Up:
		return b == Down
	case Down:
		return b == Up
	case Left:
		return b == Right
	case Right:
		return b == Left
	}
	return false
}

func step(p Point, dir Direction) Point {
	switch dir {
	case Up:
		p.Y--
	case Down:
		p.Y++
	case Left:
		p.X--
	case Right:
		p.X++
	}
	return p
}

type snake struct {
	size int
	wrap bool
}

// NewSnake 创建贪吃蛇规则。wrap 为 true 时穿墙。
func NewSnake(size int, wrap bool) Rules {
	if size < snakeStartLength+2 {
		size = defaultSnakeSize
	}
	return &snake{size: size, wrap: wrap}
}

func (s *snake) Type() GameType { return Snake }

func (s *snake) Policy() Policy {
	return Policy{MinPlayers: 1, MaxPlayers: 1}
}

func (s *snake) Initialize(_ []Player, seed uint64) (Data, error) {
	d := &SnakeData{
		Width:   s.size,
		Height:  s.size,
		Wrap:    s.wrap,
		Seed:    seed,
		Heading: Right,
		Next:    Right,
	}
	cx, cy := s.size/2, s.size/2
	for i := range snakeStartLength {
		d.Body = append(d.Body, Point{X: cx - i, Y: cy})
	}
	d.placeFood()
	return d, nil
}

func (s *snake) Validate(data Data, mv Move) error {
	d, ok := data.(*SnakeData)
	if !ok {
		return wrongData("snake", data)
	}
	if s.IsTerminal(d) {
		return apperrors.ErrAlreadyTerminal
	}
	if mv.Actor != mv.Current {
		return apperrors.ErrNotYourTurn
	}
	if mv.IsTimeUp() {
		return nil
	}
	switch mv.Action.Type {
	case ActionTick:
		return nil
	case ActionSteer:
		switch mv.Action.Direction {
		case Up, Down, Left, Right:
		default:
			return fmt.Errorf("%w: direction %q", apperrors.ErrOutOfRange, mv.Action.Direction)
		}
		if opposite(d.Heading, mv.Action.Direction) {
			return fmt.Errorf("%w: cannot reverse from %s to %s", apperrors.ErrIllegalMove, d.Heading, mv.Action.Direction)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported action %q", apperrors.ErrIllegalMove, mv.Action.Type)
	}
}

func (s *snake) Apply(data Data, mv Move) (Result, error) {
	d, ok := data.(*SnakeData)
	if !ok {
		return Result{}, wrongData("snake", data)
	}
	next := d.Clone().(*SnakeData)

	switch {
	case mv.IsTimeUp():
		return Result{Data: next}, nil
	case mv.Action.Type == ActionSteer:
		next.Next = mv.Action.Direction
		return Result{Data: next}, nil
	}

	next.Heading = next.Next
	head := step(next.Body[0], next.Heading)
	if next.Wrap {
		head.X = (head.X + next.Width) % next.Width
		head.Y = (head.Y + next.Height) % next.Height
	} else if head.X < 0 || head.Y < 0 || head.X >= next.Width || head.Y >= next.Height {
		next.Dead = true
		return Result{Data: next}, nil
	}

	eating := next.Food != nil && *next.Food == head
	// 不吃食物时尾巴同步前移，蛇头可以进入原来的尾巴位置
	body := next.Body
	if !eating {
		body = body[:len(body)-1]
	}
	if slices.Contains(body, head) {
		next.Dead = true
		return Result{Data: next}, nil
	}
	next.Body = append([]Point{head}, body...)

	if !eating {
		return Result{Data: next}, nil
	}
	next.Eaten++
	next.placeFood()
	return Result{Data: next, ScoreDelta: 1}, nil
}

func (s *snake) IsTerminal(data Data) bool {
	d, ok := data.(*SnakeData)
	if !ok {
		return false
	}
	return d.Dead || d.full()
}

func (s *snake) FinalScores(_ Data, players []Player) []Standing {
	return RankByScore(players)
}
