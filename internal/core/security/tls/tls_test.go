package tls

import (
	"context"
	gotls "crypto/tls"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func newBuilder(t *testing.T) (*ConfigBuilder, *identity.Identity) {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	b, err := NewConfigBuilder(id)
	require.NoError(t, err)
	return b, id
}

func TestCertificate_DerivesNodeID(t *testing.T) {
	b, id := newBuilder(t)

	got, err := VerifyPeerCertificate(b.Certificate().Certificate, types.EmptyNodeID)
	require.NoError(t, err)
	assert.Equal(t, id.ID(), got)

	_, err = VerifyPeerCertificate(b.Certificate().Certificate, types.NodeID{1})
	assert.ErrorIs(t, err, ErrPeerIDMismatch)

	_, err = VerifyPeerCertificate(nil, types.EmptyNodeID)
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestHandshake_MutualAuth(t *testing.T) {
	server, serverID := newBuilder(t)
	client, clientID := newBuilder(t)

	c, s := net.Pipe()
	defer c.Close()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := gotls.Server(s, server.ServerConfig())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.HandshakeContext(ctx) }()

	cli := gotls.Client(c, client.ClientConfig(serverID.ID()))
	require.NoError(t, cli.HandshakeContext(ctx))
	require.NoError(t, <-errCh)

	remote, err := RemotePeer(cli.ConnectionState())
	require.NoError(t, err)
	assert.Equal(t, serverID.ID(), remote)

	remote, err = RemotePeer(srv.ConnectionState())
	require.NoError(t, err)
	assert.Equal(t, clientID.ID(), remote)
}

func TestHandshake_WrongPeerRejected(t *testing.T) {
	server, _ := newBuilder(t)
	client, _ := newBuilder(t)
	_, other := newBuilder(t)

	c, s := net.Pipe()
	defer c.Close()
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_ = gotls.Server(s, server.ServerConfig()).HandshakeContext(ctx)
		s.Close()
	}()

	err := gotls.Client(c, client.ClientConfig(other.ID())).HandshakeContext(ctx)
	assert.ErrorIs(t, err, ErrPeerIDMismatch)
}
