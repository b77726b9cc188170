package ping

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g3tzkp/go-g3node/internal/core/host/hosttest"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

func TestPing(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)
	Register(server)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for range 3 {
		rtt, err := Ping(ctx, client, hosttest.Info(server))
		require.NoError(t, err)
		assert.Greater(t, rtt, time.Duration(0))
	}
}

func TestPing_NotSupported(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Ping(ctx, client, hosttest.Info(server))
	assert.Error(t, err)
}

func TestPing_DataMismatch(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)

	// 回显被篡改的数据
	server.RegisterProtocol(ProtocolID, func(s pkgif.Stream) {
		defer s.Close()
		buf := make([]byte, PingSize)
		if _, err := io.ReadFull(s, buf); err != nil {
			return
		}
		buf[0] ^= 0xff
		_, _ = s.Write(buf)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := Ping(ctx, client, hosttest.Info(server))
	assert.ErrorIs(t, err, ErrDataMismatch)
}

func TestPing_Timeout(t *testing.T) {
	server := hosttest.New(t)
	client := hosttest.New(t)

	release := make(chan struct{})
	defer close(release)
	server.RegisterProtocol(ProtocolID, func(s pkgif.Stream) {
		defer s.Close()
		<-release
	})

	hosttest.Connect(t, client, server)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Ping(ctx, client, hosttest.Info(server))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
