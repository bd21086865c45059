// Package safe_close coordinates the shutdown of long running components
// Package safe_close 协调长期运行组件的关闭
//
// Each component is attached as a goroutine receiving a close signal; SendCloseSignal
// broadcasts it once and WaitClosed blocks until every attached goroutine called done.
// 每个组件以 goroutine 形式挂载并接收关闭信号；SendCloseSignal 只广播一次，WaitClosed 等待所有组件调用 done。
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu       sync.Mutex
	signal   chan struct{}
	signaled bool
	err      error
	wg       sync.WaitGroup
}

func NewSafeClose() *SafeClose {
	return &SafeClose{signal: make(chan struct{})}
}

// Attach runs fn in its own goroutine; fn must call done when it has finished cleaning up
// Attach 在独立 goroutine 中运行 fn，fn 清理完成后必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() { once.Do(s.wg.Done) }
	go fn(done, s.signal)
}

// SendCloseSignal broadcasts the close signal, the first non-nil err is kept for WaitClosed
// SendCloseSignal 广播关闭信号，保留第一个非空错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil && err != nil {
		s.err = err
	}
	if s.signaled {
		return
	}
	s.signaled = true
	close(s.signal)
}

// Closed reports whether the close signal was sent
func (s *SafeClose) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signaled
}

// WaitClosed blocks until all attached goroutines are done
// WaitClosed 阻塞直到所有挂载的 goroutine 完成
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
