package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAck(t *testing.T) {
	assert.True(t, IsAck([]byte("ACK")))
	assert.False(t, IsAck([]byte("ack")))
	assert.False(t, IsAck([]byte("ACK\n")))
	assert.False(t, IsAck(nil))
}

func TestProtocolIDs(t *testing.T) {
	assert.Equal(t, "1.0.0", Messaging.Version())
	assert.True(t, IsSystem(Ping))
	assert.True(t, IsSystem(Identify))
	assert.False(t, IsSystem(Messaging))
}

func TestAckFrame(t *testing.T) {
	f := AckFrame()
	assert.True(t, IsAck(f))

	// 修改返回的切片不影响确认标记
	f[0] = 'X'
	assert.True(t, IsAck(AckFrame()))
	assert.Equal(t, "ACK", AckSentinel)
}
