package tcp

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func newTestTransport(t *testing.T) (*Transport, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	nt, err := noise.New(id)
	require.NoError(t, err)
	u, err := upgrader.New(nt, upgrader.NewConfig())
	require.NoError(t, err)
	tr := New(u)
	t.Cleanup(func() { tr.Close() })
	return tr, id
}

func TestTransport_CanDial(t *testing.T) {
	tr, _ := newTestTransport(t)

	tests := []struct {
		addr     string
		expected bool
	}{
		{"/ip4/127.0.0.1/tcp/4001", true},
		{"/ip6/::1/tcp/4001", true},
		{"/ip4/127.0.0.1/tcp/4001/ws", false},
		{"/ip4/0.0.0.0/udp/4001/quic-v1", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tr.CanDial(types.MustParseMultiaddr(tt.addr)), tt.addr)
	}
	assert.Equal(t, types.TransportTCP, tr.Protocol())
}

func TestTransport_DialListen(t *testing.T) {
	server, sid := newTestTransport(t)
	client, cid := newTestTransport(t)

	l, err := server.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)
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
	assert.Equal(t, types.TransportTCP, cc.Transport())

	var sc pkgif.CapableConn
	select {
	case sc = <-accepted:
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
	defer sc.Close()
	assert.Equal(t, cid.ID(), sc.RemotePeer())

	go func() {
		s, err := sc.AcceptStream()
		if err != nil {
			return
		}
		io.Copy(s, s)
		s.Close()
	}()

	s, err := cc.OpenStream(ctx)
	require.NoError(t, err)
	_, err = s.Write([]byte("ping"))
	require.NoError(t, err)
	require.NoError(t, s.CloseWrite())
	b, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(b))
}

func TestTransport_Closed(t *testing.T) {
	tr, _ := newTestTransport(t)
	l, err := tr.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0"))
	require.NoError(t, err)

	require.NoError(t, tr.Close())
	_, err = l.Accept()
	assert.ErrorIs(t, err, pkgif.ErrListenerClosed)

	_, err = tr.Dial(context.Background(), types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/1"), types.EmptyNodeID)
	assert.ErrorIs(t, err, pkgif.ErrTransportClosed)
	_, err = tr.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0"))
	assert.ErrorIs(t, err, pkgif.ErrTransportClosed)
}
