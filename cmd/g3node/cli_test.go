package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	g3node "github.com/g3tzkp/go-g3node"
	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/control"
)

// syncBuffer 可并发写入的输出缓冲
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(ctx context.Context, out *syncBuffer, args ...string) error {
	cmd := newRootCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func startTestNode(t *testing.T) *g3node.Node {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Transport.EnableQUIC = false
	cfg.Transport.EnableWebSocket = false

	n, err := g3node.New(g3node.WithConfig(cfg))
	require.NoError(t, err)
	_, err = n.Start(context.Background(), []string{"/ip4/127.0.0.1/tcp/0"}, g3node.DefaultConnectionPolicy())
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Stop(context.Background()) })
	return n
}

func startControl(t *testing.T, n *g3node.Node) string {
	t.Helper()
	srv := control.New(control.Config{Addr: "127.0.0.1:0", Node: n, Gatherer: n.Gatherer()})
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop() })
	return srv.Addr()
}

func TestCLI_Commands(t *testing.T) {
	a := startTestNode(t)
	b := startTestNode(t)
	ctrl := startControl(t, a)
	target := b.Status().Addrs[0].String()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	t.Run("id", func(t *testing.T) {
		out := &syncBuffer{}
		require.NoError(t, execute(ctx, out, "--control", ctrl, "id"))
		assert.Equal(t, a.Identity().String()+"\n", out.String())
	})

	t.Run("status json", func(t *testing.T) {
		out := &syncBuffer{}
		require.NoError(t, execute(ctx, out, "--control", ctrl, "--json", "status"))

		var st control.StatusResponse
		require.NoError(t, json.Unmarshal([]byte(out.String()), &st))
		assert.True(t, st.Online)
		assert.Equal(t, a.Identity().String(), st.ID)
		assert.NotEmpty(t, st.Addrs)
	})

	t.Run("send", func(t *testing.T) {
		out := &syncBuffer{}
		require.NoError(t, execute(ctx, out, "--control", ctrl, "send", target, "hello", "there"))
		assert.True(t, strings.HasPrefix(out.String(), "delivered"), out.String())
	})

	t.Run("send invalid peer", func(t *testing.T) {
		out := &syncBuffer{}
		err := execute(ctx, out, "--control", ctrl, "send", "nobody", "hi")
		assert.Error(t, err)
		assert.Contains(t, out.String(), "failed: invalid peer identifier")
	})

	t.Run("ping", func(t *testing.T) {
		out := &syncBuffer{}
		require.NoError(t, execute(ctx, out, "--control", ctrl, "ping", target))
		assert.True(t, strings.HasPrefix(out.String(), "rtt "), out.String())
	})

	t.Run("args", func(t *testing.T) {
		out := &syncBuffer{}
		assert.Error(t, execute(ctx, out, "--control", ctrl, "send", target))
		assert.Error(t, execute(ctx, out, "--control", ctrl, "ping"))
	})
}

func TestCLI_Watch(t *testing.T) {
	a := startTestNode(t)
	b := startTestNode(t)
	ctrl := startControl(t, a)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- execute(ctx, out, "--control", ctrl, "watch") }()

	// watch 连接建立前发送的消息不会被推送，重试直到输出出现
	target := a.Status().Addrs[0].String()
	require.Eventually(t, func() bool {
		if res := b.Send(context.Background(), target, []byte("watched message")); !res.Delivered() {
			return false
		}
		return strings.Contains(out.String(), "watched message")
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not exit")
	}
}

func TestCLI_ControlUnavailable(t *testing.T) {
	out := &syncBuffer{}
	err := execute(context.Background(), out, "--control", "127.0.0.1:1", "id")
	assert.Error(t, err)
}
