package host

import (
	"errors"
	"fmt"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

var (
	// ErrHostClosed Host 已关闭
	ErrHostClosed = errors.New("host: closed")

	// ErrNoAddresses 没有可拨号的地址
	ErrNoAddresses = errors.New("host: no addresses")

	// ErrDialToSelf 尝试拨号自己
	ErrDialToSelf = errors.New("host: dial to self attempted")

	// ErrNoProtocols 未指定协议
	ErrNoProtocols = errors.New("host: no protocols given")

	// ErrNoListenAddrs 未指定监听地址
	ErrNoListenAddrs = errors.New("host: no listen addresses")

	// ErrConnRefused 连接被准入策略拒绝
	ErrConnRefused = errors.New("host: connection refused by policy")
)

// DialError 拨号错误，包含每个地址的失败原因
type DialError struct {
	Peer   types.NodeID
	Errors []error
}

func (e *DialError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("failed to dial %s: unknown error", e.Peer.ShortString())
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("failed to dial %s: %v", e.Peer.ShortString(), e.Errors[0])
	}
	return fmt.Sprintf("failed to dial %s: %d errors: %v", e.Peer.ShortString(), len(e.Errors), e.Errors)
}

// Unwrap 返回所有地址的错误
func (e *DialError) Unwrap() []error {
	return e.Errors
}
