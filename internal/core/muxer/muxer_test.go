package muxer

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/config"
)

func sessionPair(t *testing.T) (client, server *Session) {
	t.Helper()
	c, s := net.Pipe()

	var err error
	client, err = NewSession(c, false, nil)
	require.NoError(t, err)
	server, err = NewSession(s, true, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestConfigToYamux(t *testing.T) {
	yc := ConfigToYamux(config.YamuxConfig{
		MaxStreamWindowSize: 512 * 1024,
		KeepAliveInterval:   config.Duration(time.Minute),
	})
	assert.Equal(t, uint32(512*1024), yc.MaxStreamWindowSize)
	assert.Equal(t, time.Minute, yc.KeepAliveInterval)
	assert.Equal(t, 256, yc.AcceptBacklog)
	assert.Equal(t, io.Discard, yc.LogOutput)
}

func TestSession_HalfClose(t *testing.T) {
	client, server := sessionPair(t)

	accepted := make(chan *Stream, 1)
	go func() {
		st, err := server.AcceptStream()
		if err == nil {
			accepted <- st
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := client.OpenStream(ctx)
	require.NoError(t, err)

	_, err = out.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, out.CloseWrite())

	in := <-accepted
	got, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	// 写端关闭后仍能读到回复
	_, err = in.Write([]byte("ACK"))
	require.NoError(t, err)
	require.NoError(t, in.Close())

	reply, err := io.ReadAll(out)
	require.NoError(t, err)
	assert.Equal(t, "ACK", string(reply))

	require.NoError(t, out.Close())
	assert.NoError(t, out.Close())
	assert.Eventually(t, func() bool { return client.NumStreams() == 0 }, time.Second, 10*time.Millisecond)
}

func TestStream_ResetUnblocksRead(t *testing.T) {
	client, server := sessionPair(t)
	go func() { _, _ = server.AcceptStream() }()

	out, err := client.OpenStream(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := out.Read(make([]byte, 1))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, out.Reset())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Reset 未打断阻塞读取")
	}
}

func TestSession_OpenStreamCanceled(t *testing.T) {
	client, _ := sessionPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.OpenStream(ctx)
	// 已取消的 ctx 可能与打开结果竞争，但不得返回未跟踪的流
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestSession_CloseIdempotent(t *testing.T) {
	client, _ := sessionPair(t)
	require.NoError(t, client.Close())
	assert.NoError(t, client.Close())
	assert.True(t, client.IsClosed())

	_, err := client.OpenStream(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}
