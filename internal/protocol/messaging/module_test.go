package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/core/eventbus"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

func TestModule(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Messaging.SendTimeout = config.Duration(3 * time.Second)

	recvOverlay := newTestOverlay(testID("b"))
	var log eventLog

	var (
		svc *Service
		bus *eventbus.Bus[types.InboundMessageEvent]
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() pkgif.Overlay { return recvOverlay }),
		fx.Supply(&Sinks{Events: log.sink}),
		eventbus.Module(),
		Module(),
		fx.Populate(&svc, &bus),
	)

	// 处理器在启动前已注册
	require.NotNil(t, recvOverlay.handler(ProtocolID))
	assert.Equal(t, 3*time.Second, svc.Config().SendTimeout)

	app.RequireStart()
	sub := bus.Subscribe(1)

	sendOverlay := newTestOverlay(testID("a"))
	sendOverlay.dialFn = linkTo(sendOverlay, recvOverlay)
	sender, err := NewService(sendOverlay)
	require.NoError(t, err)
	defer sender.Close()

	res := sender.Send(testCtx(t), testID("b").String(), []byte("via fx"))
	require.Equal(t, types.SendDelivered, res.Status, "result: %v (%v)", res, res.Err)

	require.Len(t, log.snapshot(), 1)
	select {
	case ev := <-sub.Out():
		assert.Equal(t, "via fx", ev.Text())

		// 订阅者修改自己的副本，宿主回调拿到的内容不变
		ev.Payload[0] = 'X'
		assert.Equal(t, "via fx", log.snapshot()[0].Text())
	case <-time.After(time.Second):
		t.Fatal("event not published on bus")
	}

	app.RequireStop()
	assert.Nil(t, recvOverlay.handler(ProtocolID))
}
