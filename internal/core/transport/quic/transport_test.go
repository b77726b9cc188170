package quic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func newTestTransport(t *testing.T) (*Transport, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	tb, err := tls.NewConfigBuilder(id)
	require.NoError(t, err)
	tr := New(id.ID(), tb, nil)
	t.Cleanup(func() { tr.Close() })
	return tr, id
}

func listen(t *testing.T, tr *Transport) pkgif.Listener {
	t.Helper()
	l, err := tr.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/udp/0/quic-v1"))
	require.NoError(t, err)
	return l
}

func TestTransport_DialListen(t *testing.T) {
	server, sid := newTestTransport(t)
	client, cid := newTestTransport(t)
	l := listen(t, server)
	assert.NotEqual(t, 0, l.Multiaddr().Port())

	accepted := make(chan pkgif.CapableConn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	cc, err := client.Dial(ctx, l.Multiaddr(), sid.ID())
	require.NoError(t, err)
	defer cc.Close()
	assert.Equal(t, sid.ID(), cc.RemotePeer())
	assert.Equal(t, cid.ID(), cc.LocalPeer())
	assert.Equal(t, types.TransportQUIC, cc.Transport())

	// 流在首次写入后才对服务端可见
	s, err := cc.OpenStream(ctx)
	require.NoError(t, err)
	_, err = s.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, s.CloseWrite())

	var sc pkgif.CapableConn
	select {
	case sc = <-accepted:
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
	defer sc.Close()
	assert.Equal(t, cid.ID(), sc.RemotePeer())

	ss, err := sc.AcceptStream()
	require.NoError(t, err)
	b, err := io.ReadAll(ss)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	_, err = ss.Write([]byte("ACK"))
	require.NoError(t, err)
	require.NoError(t, ss.Close())
	require.NoError(t, ss.Close())

	reply, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ACK", string(reply))
	require.NoError(t, s.Close())
	assert.Equal(t, 0, cc.NumStreams())
}

func TestTransport_PeerMismatch(t *testing.T) {
	server, _ := newTestTransport(t)
	client, _ := newTestTransport(t)
	other, err := identity.Generate()
	require.NoError(t, err)

	l := listen(t, server)
	go func() {
		for {
			c, err := l.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = client.Dial(ctx, l.Multiaddr(), other.ID())
	assert.Error(t, err)
}

func TestTransport_Close(t *testing.T) {
	tr, _ := newTestTransport(t)
	l := listen(t, tr)

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err := l.Accept()
	assert.ErrorIs(t, err, pkgif.ErrListenerClosed)

	_, err = tr.Dial(context.Background(), types.MustParseMultiaddr("/ip4/127.0.0.1/udp/1/quic-v1"), types.EmptyNodeID)
	assert.ErrorIs(t, err, pkgif.ErrTransportClosed)
}

func TestTransport_CanDial(t *testing.T) {
	tr, _ := newTestTransport(t)
	assert.True(t, tr.CanDial(types.MustParseMultiaddr("/ip4/127.0.0.1/udp/1/quic-v1")))
	assert.False(t, tr.CanDial(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/1")))
}
