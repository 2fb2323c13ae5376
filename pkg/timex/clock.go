// Package timex provides the time source used for record timestamps and sync cursors
// Package timex 提供记录时间戳与同步游标使用的时间源
package timex

import (
	"sync"
	"time"
)

// Clock time source abstraction
// Clock 时间源抽象
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
// SystemClock 读取系统时钟
type SystemClock struct{}

// Now returns the current wall clock time
// Now 返回当前系统时间
func (SystemClock) Now() time.Time {
	return time.Now()
}

// System default wall clock instance
// System 默认系统时钟
var System Clock = SystemClock{}

// NowMilli returns clock time as epoch milliseconds
// NowMilli 以毫秒时间戳返回时钟时间
func NowMilli(c Clock) int64 {
	if c == nil {
		c = System
	}
	return c.Now().UnixMilli()
}

// FromMilli converts epoch milliseconds to time.Time
// FromMilli 将毫秒时间戳转换为 time.Time
func FromMilli(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ManualClock is a Clock that only moves when told to
// ManualClock 只在显式推进时变化的时钟，用于测试
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at the given epoch milliseconds
// NewManualClock 创建从指定毫秒时间戳开始的手动时钟
func NewManualClock(startMilli int64) *ManualClock {
	return &ManualClock{now: time.UnixMilli(startMilli)}
}

// Now returns the current manual time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to the given epoch milliseconds, backwards jumps included
// Set 将时钟设置到指定毫秒时间戳（允许回拨）
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	c.now = time.UnixMilli(ms)
	c.mu.Unlock()
}

// Advance moves the clock forward by d
// Advance 将时钟向前推进 d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
