package eventbus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

func TestBus_FanOut(t *testing.T) {
	bus := New[int]()
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)
	assert.Equal(t, 2, bus.Subscribers())

	require.NoError(t, bus.Emit(1))
	require.NoError(t, bus.Emit(2))

	assert.Equal(t, 1, <-a.Out())
	assert.Equal(t, 2, <-a.Out())
	assert.Equal(t, 1, <-b.Out())
	assert.Equal(t, 2, <-b.Out())
}

func TestBus_SlowSubscriberDrops(t *testing.T) {
	bus := New[int]()
	slow := bus.Subscribe(1)
	fast := bus.Subscribe(8)

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Emit(i))
	}

	assert.Equal(t, int64(2), bus.Dropped())
	assert.Len(t, slow.Out(), 1)
	assert.Len(t, fast.Out(), 3)
}

func TestSubscription_Close(t *testing.T) {
	bus := New[string]()
	sub := bus.Subscribe(0)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.True(t, sub.Closed())
	assert.Equal(t, 0, bus.Subscribers())

	_, ok := <-sub.Out()
	assert.False(t, ok)

	// 已取消的订阅不再接收
	require.NoError(t, bus.Emit("x"))
}

func TestBus_Close(t *testing.T) {
	bus := New[int]()
	sub := bus.Subscribe(1)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	_, ok := <-sub.Out()
	assert.False(t, ok)
	assert.ErrorIs(t, bus.Emit(1), ErrClosed)

	late := bus.Subscribe(1)
	_, ok = <-late.Out()
	assert.False(t, ok)
	require.NoError(t, late.Close())
}

func TestBus_ConcurrentEmitAndClose(t *testing.T) {
	bus := New[int]()
	subs := make([]*Subscription[int], 8)
	for i := range subs {
		subs[i] = bus.Subscribe(1)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = bus.Emit(j)
			}
		}()
	}
	for _, s := range subs[:4] {
		wg.Add(1)
		go func(s *Subscription[int]) {
			defer wg.Done()
			_ = s.Close()
		}(s)
	}
	wg.Wait()
	require.NoError(t, bus.Close())

	for _, s := range subs {
		assert.True(t, s.Closed())
	}
}

func TestBus_CopyPerSubscriber(t *testing.T) {
	bus := New(WithCopy(types.InboundMessageEvent.Clone))
	a := bus.Subscribe(1)
	b := bus.Subscribe(1)

	ev := types.InboundMessageEvent{ID: "1", Payload: []byte("hello")}
	require.NoError(t, bus.Emit(ev))

	got := <-a.Out()
	got.Payload[0] = 'J'
	assert.Equal(t, "hello", (<-b.Out()).Text())
	assert.Equal(t, "hello", ev.Text())
}

func TestModule(t *testing.T) {
	var bus *Bus[types.InboundMessageEvent]
	app := fxtest.New(t, Module(), fx.Populate(&bus))
	app.RequireStart()
	sub := bus.Subscribe(1)
	app.RequireStop()

	_, ok := <-sub.Out()
	assert.False(t, ok)
}
