package storage

import (
	"context"
	"time"

	"github.com/palemoky/turn-party/internal/game/session"
	"github.com/palemoky/turn-party/internal/logger"
)

const (
	defaultRecorderBuffer = 256
	recordTimeout         = 3 * time.Second
)

// Recorder 把会话事件异步写入 Redis：每次状态更新保存快照，结束时记录排行榜。
// Publish 不阻塞，队列满时丢弃并记录警告。
type Recorder struct {
	snapshots *SnapshotStore
	board     *Leaderboard
	queue     chan session.Event
}

// NewRecorder 创建记录器，snapshots 或 board 可以为 nil
func NewRecorder(snapshots *SnapshotStore, board *Leaderboard, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultRecorderBuffer
	}
	return &Recorder{
		snapshots: snapshots,
		board:     board,
		queue:     make(chan session.Event, buffer),
	}
}

// Publish 实现 session.EventSink
func (r *Recorder) Publish(ev session.Event) {
	switch ev.Type {
	case session.EventStateUpdated, session.EventSessionFinished:
	default:
		return
	}

	select {
	case r.queue <- ev:
	default:
		logger.WithSession(ev.SessionID).Warnf("⚠️ 存储队列已满，丢弃事件 %s", ev.Type)
	}
}

// Run 消费事件直到 ctx 结束，退出前写完已入队的事件
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case ev := <-r.queue:
			r.handle(ctx, ev)
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case ev := <-r.queue:
			r.handle(context.Background(), ev)
		default:
			return
		}
	}
}

func (r *Recorder) handle(parent context.Context, ev session.Event) {
	// 已取出的事件总要写完，不随 parent 取消
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), recordTimeout)
	defer cancel()
	log := logger.WithSession(ev.SessionID)

	if r.snapshots != nil {
		if err := r.snapshots.Save(ctx, ev.Snapshot); err != nil {
			log.Warnf("⚠️ 保存会话快照失败: %v", err)
		}
	}

	if ev.Type != session.EventSessionFinished || r.board == nil || len(ev.Ranking) == 0 {
		return
	}
	// 异常结束的会话不计入排行榜
	if ev.Snapshot.Flagged {
		log.Warn("⚠️ 会话异常结束，跳过排行榜记录")
		return
	}
	if err := r.board.RecordResult(ctx, ev.Snapshot.GameType, ev.Ranking); err != nil {
		log.Errorf("❌ 记录排行榜失败: %v", err)
		return
	}
	log.Infof("🏆 已记录 %d 位玩家的战绩", len(ev.Ranking))
}
