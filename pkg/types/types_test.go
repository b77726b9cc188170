package types

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNodeID(seed string) NodeID {
	return NodeID(sha256.Sum256([]byte(seed)))
}

func TestNodeID(t *testing.T) {
	id := testNodeID("a")

	t.Run("RoundTrip", func(t *testing.T) {
		parsed, err := ParseNodeID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{"", "   ", "0OIl", "3mJr7AoUXx2Wqd"} {
			_, err := ParseNodeID(in)
			assert.ErrorIs(t, err, ErrInvalidNodeID, in)
		}
	})

	t.Run("ShortString", func(t *testing.T) {
		assert.Len(t, id.ShortString(), 8)
		assert.Equal(t, "", EmptyNodeID.ShortString())
	})

	t.Run("Text", func(t *testing.T) {
		b, err := json.Marshal(map[string]NodeID{"id": id})
		require.NoError(t, err)

		var out map[string]NodeID
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, id, out["id"])
	})

	t.Run("FromBytes", func(t *testing.T) {
		_, err := NodeIDFromBytes([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrInvalidNodeID)
	})
}

func TestProtocolIDVersion(t *testing.T) {
	assert.Equal(t, "1.0.0", ProtocolID("/g3zkp/1.0.0").Version())
	assert.Equal(t, "", ProtocolID("plain").Version())
}

func TestParseMultiaddr(t *testing.T) {
	id := testNodeID("peer")

	tests := []struct {
		in        string
		want      string
		transport string
		wantErr   bool
	}{
		{in: "/ip4/127.0.0.1/tcp/9090", want: "/ip4/127.0.0.1/tcp/9090", transport: TransportTCP},
		{in: "/ip4/0.0.0.0/tcp/9091/ws", want: "/ip4/0.0.0.0/tcp/9091/ws", transport: TransportWebSocket},
		{in: "/ip6/::1/udp/9090/quic-v1", want: "/ip6/::1/udp/9090/quic-v1", transport: TransportQUIC},
		{in: "/dns4/Example.COM/tcp/1/", want: "/dns4/example.com/tcp/1", transport: TransportTCP},
		{in: "/ip4/1.2.3.4/tcp/1/p2p/" + id.String(), want: "/ip4/1.2.3.4/tcp/1/p2p/" + id.String(), transport: TransportTCP},
		{in: "", wantErr: true},
		{in: "127.0.0.1:9090", wantErr: true},
		{in: "/ip4/::1/tcp/1", wantErr: true},
		{in: "/ip4/1.2.3.4/tcp/70000", wantErr: true},
		{in: "/ip4/1.2.3.4/udp/1", wantErr: true},
		{in: "/ip4/1.2.3.4/tcp/1/http", wantErr: true},
		{in: "/ip4/1.2.3.4", wantErr: true},
		{in: "/ip4/1.2.3.4/tcp/1/p2p/notanid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMultiaddr(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
			assert.Equal(t, tt.transport, m.Transport())
		})
	}
}

func TestMultiaddrPeerComponents(t *testing.T) {
	id := testNodeID("peer")
	base := MustParseMultiaddr("/ip4/10.0.0.1/udp/4001/quic-v1")

	withPeer := base.WithPeerID(id)
	assert.Equal(t, id, withPeer.PeerID())
	assert.Equal(t, base, withPeer.WithoutPeerID())
	assert.True(t, base.PeerID().IsEmpty())
}

func TestMultiaddrDialArgs(t *testing.T) {
	network, addr, err := MustParseMultiaddr("/ip4/127.0.0.1/tcp/9091/ws").DialArgs()
	require.NoError(t, err)
	assert.Equal(t, "tcp4", network)
	assert.Equal(t, "127.0.0.1:9091", addr)

	network, addr, err = MustParseMultiaddr("/ip6/::1/udp/9090/quic-v1").DialArgs()
	require.NoError(t, err)
	assert.Equal(t, "udp6", network)
	assert.Equal(t, "[::1]:9090", addr)

	network, _, err = MustParseMultiaddr("/dns/example.com/tcp/1").DialArgs()
	require.NoError(t, err)
	assert.Equal(t, "tcp", network)
}

func TestMultiaddrIP(t *testing.T) {
	m := MustParseMultiaddr("/ip4/0.0.0.0/tcp/9090")
	assert.True(t, m.IsUnspecified())
	assert.Equal(t, 9090, m.Port())

	lo := m.WithIP(net.ParseIP("127.0.0.1"))
	assert.Equal(t, Multiaddr("/ip4/127.0.0.1/tcp/9090"), lo)
	assert.True(t, lo.IsLoopback())

	assert.Nil(t, MustParseMultiaddr("/dns4/a.b/tcp/1").IP())
}

func TestFromNetAddr(t *testing.T) {
	m, err := FromNetAddr(&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9091}, TransportWebSocket)
	require.NoError(t, err)
	assert.Equal(t, Multiaddr("/ip4/127.0.0.1/tcp/9091/ws"), m)

	m, err = FromNetAddr(&net.UDPAddr{IP: net.ParseIP("::1"), Port: 9090}, TransportQUIC)
	require.NoError(t, err)
	assert.Equal(t, Multiaddr("/ip6/::1/udp/9090/quic-v1"), m)

	_, err = FromNetAddr(&net.TCPAddr{IP: net.ParseIP("127.0.0.1")}, "sctp")
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	id := testNodeID("target")

	t.Run("BareID", func(t *testing.T) {
		info, err := ParseTarget(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, info.ID)
		assert.Empty(t, info.Addrs)
	})

	t.Run("P2POnly", func(t *testing.T) {
		info, err := ParseTarget("/p2p/" + id.String())
		require.NoError(t, err)
		assert.Equal(t, id, info.ID)
		assert.Empty(t, info.Addrs)
	})

	t.Run("FullAddr", func(t *testing.T) {
		info, err := ParseTarget("/ip4/127.0.0.1/tcp/9090/p2p/" + id.String())
		require.NoError(t, err)
		assert.Equal(t, id, info.ID)
		assert.Equal(t, []Multiaddr{"/ip4/127.0.0.1/tcp/9090"}, info.Addrs)
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{"", "not-a-peer", "/ip4/127.0.0.1/tcp/9090", "/p2p/xyz"} {
			_, err := ParseTarget(in)
			assert.True(t, errors.Is(err, ErrInvalidPeerTarget), in)
		}
	})
}

func TestSendResult(t *testing.T) {
	r := SendResult{Status: SendFailed, Reason: ReasonTimeout, Latency: 50 * time.Millisecond}
	assert.False(t, r.Delivered())
	assert.Equal(t, "failed: timeout", r.String())

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"failed","success":false,"reason":"timeout","latencyMs":50}`, string(b))

	ok := SendResult{Status: SendDelivered}
	assert.True(t, ok.Delivered())
	assert.Equal(t, "no_acknowledgment", SendNoAcknowledgment.String())
}
