package tls

import "errors"

var (
	// ErrNoCertificate 对端未提供证书
	ErrNoCertificate = errors.New("tls: peer provided no certificate")

	// ErrInvalidPublicKey 证书公钥不是 Ed25519
	ErrInvalidPublicKey = errors.New("tls: certificate public key is not ed25519")

	// ErrPeerIDMismatch 证书派生的 NodeID 与期望不符
	ErrPeerIDMismatch = errors.New("tls: peer id mismatch")
)
