package websocket

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

// closeGracePeriod 发送关闭帧的等待时间
const closeGracePeriod = 100 * time.Millisecond

// 确保实现接口
var _ net.Conn = (*Conn)(nil)

// Conn 将 WebSocket 连接适配为 net.Conn
//
// 写入的每个切片作为一条二进制消息发送；读取跨消息边界拼接。
type Conn struct {
	*ws.Conn

	readMu sync.Mutex
	reader io.Reader

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewConn 包装 WebSocket 连接
func NewConn(c *ws.Conn) *Conn {
	return &Conn{Conn: c}
}

// Read 读取字节流
func (c *Conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	for {
		if c.reader == nil {
			mt, r, err := c.NextReader()
			if err != nil {
				return 0, mapCloseErr(err)
			}
			if mt != ws.BinaryMessage {
				continue
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if errors.Is(err, io.EOF) {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write 以二进制消息写入
func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.WriteMessage(ws.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close 发送关闭帧后关闭底层连接，幂等
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(closeGracePeriod))
		c.writeMu.Unlock()
		c.closeErr = c.Conn.Close()
	})
	return c.closeErr
}

// SetDeadline 同时设置读写截止时间
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	}
	return c.SetWriteDeadline(t)
}

// mapCloseErr 将正常关闭映射为 io.EOF
func mapCloseErr(err error) error {
	if ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway, ws.CloseNoStatusReceived) {
		return io.EOF
	}
	return err
}
