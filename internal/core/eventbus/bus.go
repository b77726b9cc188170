package eventbus

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/g3tzkp/go-g3node/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ErrClosed 事件总线已关闭
var ErrClosed = errors.New("eventbus: closed")

// DefaultBuffer 默认订阅缓冲
const DefaultBuffer = 16

// Bus 事件总线
type Bus[T any] struct {
	mu     sync.RWMutex
	sinks  []*Subscription[T]
	closed bool

	// clone 为每个订阅者复制事件，nil 时共享同一值
	clone func(T) T

	// dropCount 丢弃事件计数（用于慢消费者警告）
	dropCount atomic.Int64
}

// Option 总线选项
type Option[T any] func(*Bus[T])

// WithCopy 为每个订阅者单独复制事件
//
// 事件含有可变引用（切片、map）时使用，订阅者之间互不影响。
func WithCopy[T any](fn func(T) T) Option[T] {
	return func(b *Bus[T]) {
		b.clone = fn
	}
}

// New 创建事件总线
func New[T any](opts ...Option[T]) *Bus[T] {
	b := &Bus[T]{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe 订阅事件
//
// buffer <= 0 时使用 DefaultBuffer。
func (b *Bus[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription[T]{
		bus: b,
		out: make(chan T, buffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.closed.Store(true)
		close(sub.out)
		return sub
	}
	b.sinks = append(b.sinks, sub)
	return sub
}

// Emit 发射事件到所有订阅者，不阻塞
func (b *Bus[T]) Emit(event T) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for _, sub := range b.sinks {
		ev := event
		if b.clone != nil {
			ev = b.clone(event)
		}
		select {
		case sub.out <- ev:
		default:
			dropped := b.dropCount.Add(1)

			// 每丢弃 100 个事件警告一次，避免日志泛滥
			if dropped%100 == 1 {
				logger.Warn("慢消费者检测",
					"dropped", dropped,
					"reason", "subscriber buffer full")
			}
		}
	}
	return nil
}

// Subscribers 当前订阅者数量
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks)
}

// Dropped 累计丢弃的事件数
func (b *Bus[T]) Dropped() int64 {
	return b.dropCount.Load()
}

// Close 关闭总线及所有订阅，幂等
func (b *Bus[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	for _, sub := range sinks {
		sub.finish()
	}
	return nil
}

// removeSub 移除订阅，返回是否确实移除
func (b *Bus[T]) removeSub(sub *Subscription[T]) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.sinks {
		if s == sub {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			return true
		}
	}
	return false
}
