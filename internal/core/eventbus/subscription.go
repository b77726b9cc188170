package eventbus

import (
	"sync"
	"sync/atomic"
)

// Subscription 订阅
type Subscription[T any] struct {
	bus       *Bus[T]
	out       chan T
	closeOnce sync.Once
	closed    atomic.Bool
}

// Out 返回事件通道，订阅关闭后通道关闭
func (s *Subscription[T]) Out() <-chan T {
	return s.out
}

// Close 取消订阅
//
// 并发安全，可以多次调用。
func (s *Subscription[T]) Close() error {
	if s.bus.removeSub(s) {
		s.finish()
	}
	return nil
}

// finish 关闭通道
//
// 调用方保证订阅已从总线移除，此后不会再有发射写入 out。
func (s *Subscription[T]) finish() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.out)
	})
}

// Closed 订阅是否已关闭
func (s *Subscription[T]) Closed() bool {
	return s.closed.Load()
}
