package upgrader

import (
	"context"
	"fmt"
	"net"

	"github.com/hashicorp/yamux"

	"github.com/g3tzkp/go-g3node/internal/core/muxer"
	"github.com/g3tzkp/go-g3node/internal/core/security/noise"
	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/upgrader")

// Upgrader 连接升级器
type Upgrader struct {
	security *noise.Transport
	yamuxCfg *yamux.Config
	cfg      Config
	gater    pkgif.ConnGater
}

// New 创建连接升级器
func New(security *noise.Transport, cfg Config) (*Upgrader, error) {
	if security == nil {
		return nil, ErrNilSecurity
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = NewConfig().HandshakeTimeout
	}
	yc := cfg.Yamux
	if yc == nil {
		yc = muxer.DefaultYamuxConfig()
	}
	return &Upgrader{security: security, yamuxCfg: yc, cfg: cfg}, nil
}

// SetGater 设置入站过滤器
//
// 必须在 Listen 之前调用。
func (u *Upgrader) SetGater(g pkgif.ConnGater) {
	u.gater = g
}

// Upgrade 升级连接
//
// 出站（DirOutbound）必须提供 expected；入站时 expected 为空，
// 对端身份由握手确定。失败时关闭 conn。
func (u *Upgrader) Upgrade(
	ctx context.Context,
	conn net.Conn,
	dir types.Direction,
	expected types.NodeID,
	transportName string,
	laddr, raddr types.Multiaddr,
) (pkgif.CapableConn, error) {
	if dir == types.DirOutbound && expected.IsEmpty() {
		conn.Close()
		return nil, ErrNoPeerID
	}
	isServer := dir == types.DirInbound

	// ctx 结束时关闭原始连接，中断阻塞在握手上的读写
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	// 1. 协商安全协议
	proto, err := negotiate(ctx, conn, []string{string(noise.ID)}, isServer)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("security negotiation: %w", err)
	}
	logger.Debug("安全协议协商完成", "protocol", proto, "direction", dir)

	// 2. 安全握手
	var secConn *noise.Conn
	if isServer {
		secConn, err = u.security.SecureInbound(ctx, conn, expected)
	} else {
		secConn, err = u.security.SecureOutbound(ctx, conn, expected)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("security handshake: %w", err)
	}

	// 3. 协商多路复用器
	if _, err := negotiate(ctx, secConn, []string{muxer.ID}, isServer); err != nil {
		secConn.Close()
		return nil, fmt.Errorf("muxer negotiation: %w", err)
	}

	// 4. 建立会话
	sess, err := muxer.NewSession(secConn, isServer, u.yamuxCfg)
	if err != nil {
		secConn.Close()
		return nil, fmt.Errorf("muxer setup: %w", err)
	}

	if !stop() {
		sess.Close()
		return nil, fmt.Errorf("upgrade: %w", ctx.Err())
	}

	logger.Debug("连接升级成功",
		"remotePeer", secConn.RemotePeer().ShortString(),
		"transport", transportName,
		"direction", dir)

	return &upgradedConn{
		sess:      sess,
		sec:       secConn,
		transport: transportName,
		laddr:     laddr,
		raddr:     raddr,
	}, nil
}
