package g3node

import (
	"errors"
	"fmt"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/protocol/messaging"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 节点生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 节点未启动
	ErrNotStarted = errors.New("node not started")

	// ErrAlreadyStarted 节点已启动
	ErrAlreadyStarted = errors.New("node already started")

	// ErrNodeClosed 节点已关闭，不能再次启动
	ErrNodeClosed = errors.New("node closed")

	// ────────────────────────────────────────────────────────────────────────
	// 配置与消息错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrInvalidPolicy 连接策略无效
	ErrInvalidPolicy = config.ErrInvalidPolicy

	// ErrInvalidPeerIdentifier 目标节点标识无效
	ErrInvalidPeerIdentifier = messaging.ErrInvalidPeerIdentifier
)

// ProtocolDecodeError 入站帧无法解码，通过 WithErrorHandler 报告
type ProtocolDecodeError = messaging.ProtocolDecodeError

// StartupError 节点启动失败
//
// 连接策略无效、配置无效或所有监听地址都无法绑定时返回。
type StartupError struct {
	// Op 失败的启动阶段：policy / config / assemble / start
	Op string

	// Err 底层原因
	Err error
}

// Error 实现 error
func (e *StartupError) Error() string {
	return fmt.Sprintf("startup failed (%s): %v", e.Op, e.Err)
}

// Unwrap 返回底层原因
func (e *StartupError) Unwrap() error {
	return e.Err
}
