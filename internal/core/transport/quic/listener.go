package quic

import (
	"context"
	"sync"

	"github.com/quic-go/quic-go"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// 确保实现接口
var _ pkgif.Listener = (*Listener)(nil)

// Listener QUIC 监听器
type Listener struct {
	ql        *quic.Listener
	laddr     types.Multiaddr
	transport *Transport

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Accept 接受已完成 TLS 握手的连接
//
// 无法提取对端身份的连接被关闭并跳过。
func (l *Listener) Accept() (pkgif.CapableConn, error) {
	for {
		qc, err := l.ql.Accept(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return nil, pkgif.ErrListenerClosed
			}
			return nil, err
		}

		raddr, _ := types.FromNetAddr(qc.RemoteAddr(), types.TransportQUIC)
		if g := l.transport.gater; g != nil && !g.InterceptAccept(raddr) {
			logger.Debug("入站连接被过滤", "remote", raddr)
			qc.CloseWithError(0, "gated")
			continue
		}

		c, err := newConn(qc, l.transport.localPeer)
		if err != nil {
			logger.Debug("入站连接身份无效", "remote", raddr, "error", err)
			qc.CloseWithError(0, "invalid identity")
			continue
		}
		return c, nil
	}
}

// Close 关闭监听器，幂等
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		l.cancel()
		err = l.ql.Close()
		l.transport.removeListener(l)
	})
	return err
}

// Multiaddr 返回实际监听地址
func (l *Listener) Multiaddr() types.Multiaddr {
	return l.laddr
}
