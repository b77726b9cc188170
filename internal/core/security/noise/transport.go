package noise

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/flynn/noise"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

var logger = log.Logger("core/security/noise")

// ID Noise 安全协议标识
const ID types.ProtocolID = "/noise"

// Transport Noise 协议传输
type Transport struct {
	identity *identity.Identity
	static   noise.DHKey
}

// New 创建 Noise 传输
func New(id *identity.Identity) (*Transport, error) {
	if id == nil {
		return nil, errors.New("noise: identity is nil")
	}
	static, err := staticKeyFromIdentity(id)
	if err != nil {
		return nil, err
	}
	return &Transport{identity: id, static: static}, nil
}

// SecureInbound 保护入站连接
//
// 入站时不知道对端身份，expected 通常为空。
func (t *Transport) SecureInbound(ctx context.Context, conn net.Conn, expected types.NodeID) (*Conn, error) {
	return t.secure(ctx, conn, expected, false)
}

// SecureOutbound 保护出站连接
func (t *Transport) SecureOutbound(ctx context.Context, conn net.Conn, expected types.NodeID) (*Conn, error) {
	return t.secure(ctx, conn, expected, true)
}

func (t *Transport) secure(ctx context.Context, conn net.Conn, expected types.NodeID, initiator bool) (*Conn, error) {
	if conn == nil {
		return nil, errors.New("noise: conn is nil")
	}

	// 握手受 ctx 约束：deadline 透传，取消时立即打断阻塞读写
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	sc, err := performHandshake(conn, t.static, t.identity, expected, initiator)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w (%v)", ctxErr, err)
		}
		logger.Debug("Noise 握手失败", "initiator", initiator, "remote", conn.RemoteAddr(), "error", err)
		return nil, fmt.Errorf("noise handshake: %w", err)
	}

	_ = conn.SetDeadline(time.Time{})
	logger.Debug("Noise 握手成功", "initiator", initiator, "remotePeer", sc.remotePeer.ShortString())
	return sc, nil
}
