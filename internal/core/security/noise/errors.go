package noise

import "errors"

var (
	// ErrPeerIDMismatch 握手得到的节点 ID 与期望不符
	ErrPeerIDMismatch = errors.New("noise: peer id mismatch")

	// ErrInvalidPayload 握手 payload 格式错误
	ErrInvalidPayload = errors.New("noise: invalid handshake payload")

	// ErrInvalidSignature 静态密钥未绑定到身份密钥
	ErrInvalidSignature = errors.New("noise: invalid signature: remote static key not bound to identity key")
)
