// Package hosttest 提供基于本地回环 TCP 的真实 Host，供上层协议测试使用
package hosttest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/host"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/peerstore"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	"github.com/g3tzkp/go-g3node/internal/core/transport"
	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Loopback 本地回环监听地址（随机端口）
var Loopback = types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0")

// New 创建监听在回环地址上的 Host，测试结束时自动关闭
func New(t testing.TB, opts ...host.Option) *host.Host {
	t.Helper()

	id, err := identity.Generate()
	require.NoError(t, err)
	nt, err := noise.New(id)
	require.NoError(t, err)
	u, err := upgrader.New(nt, upgrader.NewConfig())
	require.NoError(t, err)
	tb, err := tls.NewConfigBuilder(id)
	require.NoError(t, err)

	tcfg := config.DefaultTransportConfig()
	tcfg.EnableQUIC = false
	tcfg.EnableWebSocket = false
	tm := transport.NewTransportManager(tcfg, id, tb, u, nil)

	opts = append([]host.Option{host.WithPeerstore(peerstore.New(peerstore.NewConfig()))}, opts...)
	h, err := host.New(id.ID(), tm, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = h.Close()
		_ = tm.Close()
	})

	require.NoError(t, h.Listen(Loopback))
	return h
}

// Info 返回 Host 的拨号信息
func Info(h *host.Host) types.AddrInfo {
	return types.AddrInfo{ID: h.ID(), Addrs: h.ListenAddrs()}
}

// Connect 建立 a 到 b 的连接
func Connect(t testing.TB, a, b *host.Host) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Connect(ctx, Info(b)))
}
