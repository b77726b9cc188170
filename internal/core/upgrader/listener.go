package upgrader

import (
	"context"
	"net"
	"sync"

	tec "github.com/jbenet/go-temp-err-catcher"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// acceptQueueSize 已升级但尚未被 Accept 取走的连接上限
const acceptQueueSize = 16

// listener 升级监听器
type listener struct {
	inner     net.Listener
	upgrader  *Upgrader
	transport string
	laddr     types.Multiaddr

	incoming chan pkgif.CapableConn
	closed   chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// Listen 包装原始监听器，入站连接在后台完成升级
func (u *Upgrader) Listen(inner net.Listener, transportName string, laddr types.Multiaddr) pkgif.Listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &listener{
		inner:     inner,
		upgrader:  u,
		transport: transportName,
		laddr:     laddr,
		incoming:  make(chan pkgif.CapableConn, acceptQueueSize),
		closed:    make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	l.wg.Add(1)
	go l.acceptLoop()
	return l
}

func (l *listener) acceptLoop() {
	defer l.wg.Done()
	defer l.Close()

	var catcher tec.TempErrCatcher
	for {
		raw, err := l.inner.Accept()
		if err != nil {
			if catcher.IsTemporary(err) {
				continue
			}
			select {
			case <-l.closed:
			default:
				logger.Warn("监听器接受失败", "addr", l.laddr, "error", err)
			}
			return
		}
		catcher.Reset()

		raddr, err := types.FromNetAddr(raw.RemoteAddr(), l.transport)
		if err != nil {
			logger.Debug("无法解析远端地址", "addr", raw.RemoteAddr(), "error", err)
			raw.Close()
			continue
		}
		if g := l.upgrader.gater; g != nil && !g.InterceptAccept(raddr) {
			logger.Debug("入站连接被过滤", "remote", raddr)
			raw.Close()
			continue
		}

		l.wg.Add(1)
		go l.upgrade(raw, raddr)
	}
}

func (l *listener) upgrade(raw net.Conn, raddr types.Multiaddr) {
	defer l.wg.Done()

	ctx, cancel := context.WithTimeout(l.ctx, l.upgrader.cfg.HandshakeTimeout)
	defer cancel()

	conn, err := l.upgrader.Upgrade(ctx, raw, types.DirInbound, types.EmptyNodeID, l.transport, l.laddr, raddr)
	if err != nil {
		logger.Debug("入站连接升级失败", "remote", raddr, "error", err)
		return
	}

	select {
	case l.incoming <- conn:
	case <-l.closed:
		conn.Close()
	}
}

// Accept 返回下一个已升级的入站连接
func (l *listener) Accept() (pkgif.CapableConn, error) {
	select {
	case c := <-l.incoming:
		return c, nil
	case <-l.closed:
		return nil, pkgif.ErrListenerClosed
	}
}

// Close 关闭监听器，幂等
func (l *listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.closed)
		l.cancel()
		err = l.inner.Close()
		for {
			select {
			case c := <-l.incoming:
				c.Close()
			default:
				return
			}
		}
	})
	return err
}

func (l *listener) Multiaddr() types.Multiaddr {
	return l.laddr
}
