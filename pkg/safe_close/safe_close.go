// Package safe_close 协调多个长期运行组件的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose 收到关闭信号后通知全部已挂载的组件，并等待它们退出
type SafeClose struct {
	closeSignal chan struct{}
	signalOnce  sync.Once

	wg sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeSignal: make(chan struct{})}
}

// Attach 挂载一个组件，fn 在新 goroutine 中运行
// fn 必须在退出前调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.closeSignal)
}

// SendCloseSignal 广播关闭信号，只有第一次调用生效
// err 为导致关闭的原因，正常关闭传 nil
func (s *SafeClose) SendCloseSignal(err error) {
	s.signalOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.closeSignal)
	})
}

// CloseSignal 关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed 等待全部组件退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
