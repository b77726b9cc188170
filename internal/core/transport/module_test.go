package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	"github.com/g3tzkp/go-g3node/internal/core/security/tls"
	"github.com/g3tzkp/go-g3node/internal/core/upgrader"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func newManager(t *testing.T, cfg config.TransportConfig) *TransportManager {
	t.Helper()
	id, err := identity.Generate()
	require.NoError(t, err)
	tb, err := tls.NewConfigBuilder(id)
	require.NoError(t, err)
	nt, err := noise.New(id)
	require.NoError(t, err)
	u, err := upgrader.New(nt, upgrader.NewConfig())
	require.NoError(t, err)

	tm := NewTransportManager(cfg, id, tb, u, nil)
	t.Cleanup(func() { tm.Close() })
	return tm
}

func TestTransportManager_ForAddr(t *testing.T) {
	tm := newManager(t, config.DefaultTransportConfig())
	assert.Len(t, tm.Transports(), 3)

	for _, addr := range []string{
		"/ip4/127.0.0.1/tcp/1",
		"/ip4/127.0.0.1/tcp/1/ws",
		"/ip4/127.0.0.1/udp/1/quic-v1",
	} {
		m := types.MustParseMultiaddr(addr)
		tr, err := tm.ForAddr(m)
		require.NoError(t, err, addr)
		assert.True(t, tr.CanDial(m), addr)
	}
}

func TestTransportManager_Disabled(t *testing.T) {
	cfg := config.DefaultTransportConfig()
	cfg.EnableWebSocket = false
	cfg.EnableQUIC = false
	tm := newManager(t, cfg)
	assert.Len(t, tm.Transports(), 1)

	_, err := tm.ForAddr(types.MustParseMultiaddr("/ip4/127.0.0.1/udp/1/quic-v1"))
	assert.ErrorIs(t, err, pkgif.ErrUnsupportedAddr)
}
