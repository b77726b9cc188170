package upgrader

import "errors"

var (
	// ErrNilSecurity 未提供安全传输
	ErrNilSecurity = errors.New("upgrader: security transport is nil")

	// ErrNoPeerID 出站连接缺少远端 NodeID
	ErrNoPeerID = errors.New("upgrader: outbound connection requires remote peer ID")

	// ErrGated 入站连接被过滤
	ErrGated = errors.New("upgrader: connection gated")
)
