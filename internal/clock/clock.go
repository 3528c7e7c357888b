// Package clock 提供可替换的时间源，会话计时器通过它读取时间和安排回调。
package clock

import "time"

// Timer 可取消的定时回调
type Timer interface {
	// Stop 取消回调，回调已执行或已取消时返回 false
	Stop() bool
}

// Ticker 周期触发，接收方来不及读取时丢弃多余的触发
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock 时间源
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
	NewTicker(d time.Duration) Ticker
}

// Real 系统时钟
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }
