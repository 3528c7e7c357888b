package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresDueTimersInOrder(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Unix(0, 0))
	var order []int
	c.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	c.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	c.AfterFunc(5*time.Second, func() { order = append(order, 5) })

	c.Advance(3 * time.Second)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 1, c.Pending())
	assert.Equal(t, time.Unix(3, 0), c.Now())
}

func TestFake_StopPreventsCallback(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Unix(0, 0))
	var fired atomic.Int32
	timer := c.AfterFunc(time.Second, func() { fired.Add(1) })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	c.Advance(time.Minute)
	assert.Zero(t, fired.Load())
}

func TestFake_CallbackMayScheduleAgain(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Unix(0, 0))
	var fired atomic.Int32
	c.AfterFunc(time.Second, func() {
		fired.Add(1)
		c.AfterFunc(time.Second, func() { fired.Add(1) })
	})

	c.Advance(time.Second)
	assert.Equal(t, int32(1), fired.Load())
	c.Advance(time.Second)
	assert.Equal(t, int32(2), fired.Load())
}

func TestFake_TickerFiresOnAdvance(t *testing.T) {
	t.Parallel()

	c := NewFake(time.Unix(0, 0))
	ticker := c.NewTicker(time.Minute)
	assert.Equal(t, 1, c.Pending())

	c.Advance(59 * time.Second)
	assert.Empty(t, ticker.C())

	c.Advance(time.Second)
	assert.Equal(t, time.Unix(60, 0), <-ticker.C())

	// 没有读取时多余的触发被丢弃
	c.Advance(time.Minute)
	c.Advance(time.Minute)
	assert.Len(t, ticker.C(), 1)
	assert.Equal(t, time.Unix(120, 0), <-ticker.C())

	ticker.Stop()
	assert.Zero(t, c.Pending())
	c.Advance(time.Hour)
	assert.Empty(t, ticker.C())
}

func TestReal_Ticker(t *testing.T) {
	t.Parallel()

	ticker := Real{}.NewTicker(time.Millisecond)
	defer ticker.Stop()
	select {
	case <-ticker.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
}

func TestReal_AfterFunc(t *testing.T) {
	t.Parallel()

	var fired atomic.Bool
	Real{}.AfterFunc(time.Millisecond, func() { fired.Store(true) })
	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
}
