package quic

import "errors"

var (
	// ErrConnectionClosed 连接已关闭
	ErrConnectionClosed = errors.New("quic: connection closed")

	// ErrPeerIDMismatch 对端身份与期望不符
	ErrPeerIDMismatch = errors.New("quic: peer ID mismatch")
)
