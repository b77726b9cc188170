package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
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

// TestConn_StreamSemantics 多条二进制消息按字节流读取
func TestConn_StreamSemantics(t *testing.T) {
	up := ws.Upgrader{}
	serverConns := make(chan net.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- NewConn(c)
	}))
	defer srv.Close()

	c, _, err := ws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	client := NewConn(c)

	server := <-serverConns
	defer server.Close()

	_, err = client.Write([]byte("hel"))
	require.NoError(t, err)
	_, err = client.Write([]byte("lo"))
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	b, err := io.ReadAll(server)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestTransport_DialListen(t *testing.T) {
	server, sid := newTestTransport(t)
	client, cid := newTestTransport(t)

	l, err := server.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0/ws"))
	require.NoError(t, err)
	assert.Equal(t, types.TransportWebSocket, l.Multiaddr().Transport())

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

	select {
	case sc := <-accepted:
		defer sc.Close()
		assert.Equal(t, cid.ID(), sc.RemotePeer())
		assert.Equal(t, types.TransportWebSocket, sc.Transport())
	case <-ctx.Done():
		t.Fatal("accept timeout")
	}
}

func TestTransport_CanDial(t *testing.T) {
	tr, _ := newTestTransport(t)
	assert.True(t, tr.CanDial(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/1/ws")))
	assert.False(t, tr.CanDial(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/1")))

	_, err := tr.Listen(types.MustParseMultiaddr("/ip4/127.0.0.1/tcp/0"))
	assert.ErrorIs(t, err, pkgif.ErrUnsupportedAddr)
}
