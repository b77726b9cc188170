package identify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/g3tzkp/go-g3node/internal/core/host"
	"github.com/g3tzkp/go-g3node/internal/core/host/hosttest"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func TestInfo_Unmarshal(t *testing.T) {
	in := &Info{
		ListenAddrs:  []types.Multiaddr{"/ip4/10.0.0.1/tcp/9090", "/ip4/10.0.0.1/udp/9090/quic-v1"},
		Protocols:    []types.ProtocolID{"/g3zkp/1.0.0", ProtocolID},
		AgentVersion: "g3node/test",
	}
	b := in.Marshal()

	// 未知字段与无效地址被跳过
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	b = protowire.AppendTag(b, fieldListenAddrs, protowire.BytesType)
	b = protowire.AppendString(b, "not-an-addr")

	var out Info
	require.NoError(t, out.Unmarshal(b))
	assert.Equal(t, in.ListenAddrs, out.ListenAddrs)
	assert.Equal(t, in.Protocols, out.Protocols)
	assert.Equal(t, in.AgentVersion, out.AgentVersion)
}

func TestInfo_UnmarshalMalformed(t *testing.T) {
	b := protowire.AppendTag(nil, fieldProtocols, protowire.BytesType)
	b = protowire.AppendVarint(b, 100) // 声明长度超过剩余数据

	var out Info
	assert.ErrorIs(t, out.Unmarshal(b), ErrMalformed)
}

func newService(h *host.Host) *Service {
	s := NewService(h, h.Peerstore(), h.AgentVersion())
	h.RegisterProtocol(ProtocolID, s.Handler)
	return s
}

func TestIdentify(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)
	newService(server)
	cs := newService(client)
	defer cs.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := cs.Identify(ctx, hosttest.Info(server))
	require.NoError(t, err)
	assert.Equal(t, server.ID(), info.Peer)
	assert.Equal(t, server.ListenAddrs(), info.ListenAddrs)
	assert.Contains(t, info.Protocols, ProtocolID)
	assert.Equal(t, host.AgentVersion, info.AgentVersion)

	ps := client.Peerstore()
	assert.True(t, ps.SupportsProtocol(server.ID(), ProtocolID))
	agent, err := ps.AgentVersion(server.ID())
	require.NoError(t, err)
	assert.Equal(t, host.AgentVersion, agent)
}

func TestIdentify_OnConnect(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)
	newService(server)
	cs := newService(client)
	client.Notify(cs)
	defer cs.Close()

	hosttest.Connect(t, client, server)

	assert.Eventually(t, func() bool {
		return client.Peerstore().SupportsProtocol(server.ID(), ProtocolID)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestService_CloseStopsNewWork(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)
	newService(server)
	cs := newService(client)
	client.Notify(cs)

	require.NoError(t, cs.Close())
	require.NoError(t, cs.Close())

	hosttest.Connect(t, client, server)
	time.Sleep(100 * time.Millisecond)
	assert.False(t, client.Peerstore().SupportsProtocol(server.ID(), ProtocolID))
}
