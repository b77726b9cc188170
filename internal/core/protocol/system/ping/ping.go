package ping

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"time"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/protocol"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ProtocolID Ping 协议 ID
const ProtocolID = protocol.Ping

const (
	// PingSize Ping 消息大小（32 字节）
	PingSize = 32

	// PingTimeout 未设置截止时间时的 Ping 超时
	PingTimeout = 10 * time.Second

	// HandlerIdleTimeout Handler 空闲超时时间
	HandlerIdleTimeout = 60 * time.Second
)

// ErrDataMismatch Ping 回显数据不匹配
var ErrDataMismatch = errors.New("ping: echo data mismatch")

// Handler 处理 Ping 请求（服务器端），读取数据并回显
func Handler(stream pkgif.Stream) {
	defer stream.Close()

	buf := make([]byte, PingSize)
	for {
		_ = stream.SetReadDeadline(time.Now().Add(HandlerIdleTimeout))

		if _, err := io.ReadFull(stream, buf); err != nil {
			return
		}
		if _, err := stream.Write(buf); err != nil {
			return
		}
	}
}

// Register 在覆盖网络上注册 Ping 处理器
func Register(o pkgif.Overlay) {
	o.RegisterProtocol(ProtocolID, Handler)
}

// Ping 主动 Ping 节点（客户端），返回往返时间
//
// ctx 结束时流被重置，调用立即返回。
func Ping(ctx context.Context, o pkgif.Overlay, target types.AddrInfo) (time.Duration, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, PingTimeout)
		defer cancel()
	}

	stream, err := o.Dial(ctx, target, ProtocolID)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = stream.Reset()
	})
	defer stop()

	buf := make([]byte, PingSize)
	if _, err := rand.Read(buf); err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := stream.Write(buf); err != nil {
		return 0, pingErr(ctx, err)
	}

	echo := make([]byte, PingSize)
	if _, err := io.ReadFull(stream, echo); err != nil {
		return 0, pingErr(ctx, err)
	}
	rtt := time.Since(start)

	if !bytes.Equal(buf, echo) {
		return 0, ErrDataMismatch
	}
	return rtt, nil
}

// pingErr ctx 结束导致的失败返回 ctx 的错误
func pingErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
