package messaging

import (
	"crypto/sha256"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func testID(seed string) types.NodeID {
	return types.NodeID(sha256.Sum256([]byte(seed)))
}

// eventLog 并发安全的事件记录
type eventLog struct {
	mu     sync.Mutex
	events []types.InboundMessageEvent
}

func (l *eventLog) sink(ev types.InboundMessageEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []types.InboundMessageEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.InboundMessageEvent(nil), l.events...)
}

// runSession 在后台运行会话，返回结果通道
func runSession(sess *Session) <-chan error {
	done := make(chan error, 1)
	go func() { done <- sess.Run() }()
	return done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
		return nil
	}
}

func TestSession_FramesAreAcknowledged(t *testing.T) {
	sender, receiver := newStreamPair(testID("a"), testID("b"))
	var log eventLog
	sess := NewSession(receiver, DefaultConfig(), log.sink, nil)
	assert.Equal(t, StateOpen, sess.State())
	done := runSession(sess)

	fr := NewFrameReader(sender, 0)
	for i, msg := range []string{"first", "second"} {
		require.NoError(t, WriteFrame(sender, []byte(msg)))

		ack, err := fr.ReadFrame()
		require.NoError(t, err)
		assert.True(t, protocol.IsAck(ack))

		// 事件先于 ACK 交付
		events := log.snapshot()
		require.Len(t, events, i+1)
		assert.Equal(t, msg, events[i].Text())
	}
	require.NoError(t, sender.CloseWrite())

	require.NoError(t, waitErr(t, done))
	assert.Equal(t, StateClosed, sess.State())
	assert.Equal(t, int64(2), sess.Frames())
	assert.Equal(t, int32(1), receiver.closes.Load())

	events := log.snapshot()
	assert.Equal(t, testID("a"), events[0].From)
	assert.Equal(t, ProtocolID, events[0].Protocol)
	assert.NotEmpty(t, events[0].ID)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.False(t, events[0].ReceivedAt.IsZero())
}

func TestSession_EmptyStream(t *testing.T) {
	sender, receiver := newStreamPair(testID("a"), testID("b"))
	var log eventLog
	sess := NewSession(receiver, DefaultConfig(), log.sink, nil)
	done := runSession(sess)

	require.NoError(t, sender.CloseWrite())
	require.NoError(t, waitErr(t, done))
	assert.Empty(t, log.snapshot())
	assert.Equal(t, StateClosed, sess.State())
}

func TestSession_DecodeErrorCloses(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		max   int
		want  error
	}{
		{name: "InvalidText", frame: []byte{2, 0xff, 0xfe}, want: ErrInvalidText},
		{name: "TooLarge", frame: []byte{16}, max: 8, want: ErrMessageTooLarge},
		{name: "Truncated", frame: []byte{4, 'a'}, want: ErrMalformedFrame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, receiver := newStreamPair(testID("a"), testID("b"))
			cfg := DefaultConfig()
			if tt.max > 0 {
				cfg.MaxMessageSize = tt.max
			}
			var log eventLog
			sess := NewSession(receiver, cfg, log.sink, nil)
			done := runSession(sess)

			go func() {
				_, _ = sender.Write(tt.frame)
				_ = sender.CloseWrite()
			}()

			err := waitErr(t, done)
			var pde *ProtocolDecodeError
			require.True(t, errors.As(err, &pde), "got %v", err)
			assert.Equal(t, testID("a"), pde.Peer)
			assert.ErrorIs(t, err, tt.want)

			assert.Equal(t, StateClosed, sess.State())
			assert.Empty(t, log.snapshot())
			assert.Equal(t, int32(1), receiver.closes.Load())
		})
	}
}

func TestSession_SinkPanic(t *testing.T) {
	sender, receiver := newStreamPair(testID("a"), testID("b"))
	sess := NewSession(receiver, DefaultConfig(), func(types.InboundMessageEvent) {
		panic("boom")
	}, nil)
	done := runSession(sess)

	go func() { _ = WriteFrame(sender, []byte("hi")) }()

	err := waitErr(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, StateClosed, sess.State())
}

func TestSession_Abort(t *testing.T) {
	_, receiver := newStreamPair(testID("a"), testID("b"))
	sess := NewSession(receiver, DefaultConfig(), nil, nil)
	done := runSession(sess)

	assert.Eventually(t, func() bool { return sess.State() == StateReading }, time.Second, 5*time.Millisecond)
	sess.Abort()

	assert.ErrorIs(t, waitErr(t, done), io.ErrClosedPipe)
	assert.Equal(t, StateClosed, sess.State())

	// 关闭后再次 Abort 不触碰流
	sess.Abort()
	assert.Equal(t, int32(1), receiver.resets.Load())
	assert.Equal(t, int32(1), receiver.closes.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "reading", StateReading.String())
	assert.Equal(t, "responding", StateResponding.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
