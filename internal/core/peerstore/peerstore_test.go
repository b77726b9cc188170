package peerstore

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func testID(s string) types.NodeID {
	return types.NodeID(sha256.Sum256([]byte(s)))
}

var (
	addrA = types.MustParseMultiaddr("/ip4/10.0.0.1/tcp/9090")
	addrB = types.MustParseMultiaddr("/ip4/10.0.0.1/udp/9090/quic-v1")
)

func TestPeerstore_AddrTTL(t *testing.T) {
	clk := clock.NewMock()
	ps := NewWithClock(NewConfig(), clk)
	id := testID("a")

	ps.AddAddrs(id, []types.Multiaddr{addrA}, TempAddrTTL)
	ps.AddAddrs(id, []types.Multiaddr{addrB.WithPeerID(id)}, ConnectedAddrTTL)
	assert.Equal(t, []types.Multiaddr{addrA, addrB}, ps.Addrs(id))

	clk.Add(TempAddrTTL)
	assert.Equal(t, []types.Multiaddr{addrB}, ps.Addrs(id))

	clk.Add(ConnectedAddrTTL)
	assert.Empty(t, ps.Addrs(id))
	assert.Empty(t, ps.PeersWithAddrs())
}

func TestPeerstore_ExtendNotShorten(t *testing.T) {
	clk := clock.NewMock()
	ps := NewWithClock(NewConfig(), clk)
	id := testID("a")

	ps.AddAddrs(id, []types.Multiaddr{addrA}, ConnectedAddrTTL)
	ps.AddAddrs(id, []types.Multiaddr{addrA}, TempAddrTTL)

	clk.Add(TempAddrTTL + time.Second)
	assert.Equal(t, []types.Multiaddr{addrA}, ps.Addrs(id))
}

func TestPeerstore_Permanent(t *testing.T) {
	clk := clock.NewMock()
	ps := NewWithClock(NewConfig(), clk)
	id := testID("known")

	ps.AddAddrs(id, []types.Multiaddr{addrA}, PermanentAddrTTL)
	ps.UpdateAddrs(id, ConnectedAddrTTL, time.Second)
	clk.Add(1000 * time.Hour)
	assert.Equal(t, []types.Multiaddr{addrA}, ps.Addrs(id))
	assert.Equal(t, []types.NodeID{id}, ps.PeersWithAddrs())
}

func TestPeerstore_UpdateAddrs(t *testing.T) {
	clk := clock.NewMock()
	ps := NewWithClock(NewConfig(), clk)
	id := testID("a")

	ps.AddAddrs(id, []types.Multiaddr{addrA}, ConnectedAddrTTL)
	ps.UpdateAddrs(id, ConnectedAddrTTL, RecentlyConnectedAddrTTL)

	clk.Add(RecentlyConnectedAddrTTL)
	assert.Empty(t, ps.Addrs(id))
}

func TestPeerstore_ProtocolsAndAgent(t *testing.T) {
	ps := New(NewConfig())
	id := testID("a")

	_, err := ps.Protocols(id)
	assert.ErrorIs(t, err, ErrNotFound)

	ps.SetProtocols(id, "/g3zkp/1.0.0", "/g3zkp/sys/ping/1.0.0")
	assert.True(t, ps.SupportsProtocol(id, "/g3zkp/1.0.0"))
	assert.False(t, ps.SupportsProtocol(id, "/other"))

	ps.SetAgentVersion(id, "g3node/1.0.0")
	v, err := ps.AgentVersion(id)
	require.NoError(t, err)
	assert.Equal(t, "g3node/1.0.0", v)

	ps.RemovePeer(id)
	assert.Equal(t, 0, ps.Len())
}

func TestPeerstore_Capacity(t *testing.T) {
	ps := New(Config{Capacity: 2})
	for _, s := range []string{"a", "b", "c"} {
		ps.AddAddrs(testID(s), []types.Multiaddr{addrA}, ConnectedAddrTTL)
	}
	assert.Equal(t, 2, ps.Len())
	assert.Empty(t, ps.Addrs(testID("a")))
}

func TestModule_KnownPeers(t *testing.T) {
	id := testID("known")
	cfg := config.NewConfig()
	cfg.KnownPeers = []config.KnownPeer{{PeerID: id.String(), Addrs: []string{addrA.String()}}}

	var ps *Peerstore
	app := fxtest.New(t,
		fx.Supply(cfg),
		Module(),
		fx.Populate(&ps),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, []types.Multiaddr{addrA}, ps.Addrs(id))
}
