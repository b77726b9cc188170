package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ConnOpened(types.TransportTCP, types.DirInbound)
	m.ConnOpened(types.TransportTCP, types.DirOutbound)
	m.ConnClosed(types.TransportTCP)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connsActive.WithLabelValues(types.TransportTCP)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connsOpened.WithLabelValues(types.TransportTCP, "inbound")))

	m.MessageReceived(5)
	m.DecodeError()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesReceived))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.bytes.WithLabelValues("inbound")))

	m.SendResult(types.SendResult{Status: types.SendDelivered, Latency: time.Millisecond}, 3)
	m.SendResult(types.SendResult{Status: types.SendFailed, Reason: types.ReasonTimeout, Err: errors.New("x")}, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendResults.WithLabelValues("delivered", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sendResults.WithLabelValues("failed", "timeout")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.bytes.WithLabelValues("outbound")))

	// 重复注册失败
	_, err = New(reg)
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ConnOpened(types.TransportQUIC, types.DirOutbound)
		m.ConnClosed(types.TransportQUIC)
		m.ConnRefused("max")
		m.StreamOpened("/g3zkp/1.0.0", types.DirInbound)
		m.MessageReceived(1)
		m.DecodeError()
		m.SessionStarted()
		m.SessionEnded()
		m.SendResult(types.SendResult{}, 0)
		m.PingRTT(0.1)
	})
}

func TestModule(t *testing.T) {
	t.Run("Enabled", func(t *testing.T) {
		var (
			m *Metrics
			g prometheus.Gatherer
		)
		app := fxtest.New(t, fx.Supply(config.NewConfig()), Module(), fx.Populate(&m, &g))
		app.RequireStart()
		defer app.RequireStop()

		require.NotNil(t, m)
		require.NotNil(t, g)
		m.PingRTT(0.01)
		families, err := g.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})

	t.Run("Disabled", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.Metrics.Enable = false

		var m *Metrics
		app := fxtest.New(t, fx.Supply(cfg), Module(), fx.Populate(&m))
		app.RequireStart()
		defer app.RequireStop()
		assert.Nil(t, m)
	})
}
