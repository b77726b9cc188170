package connmgr

import "errors"

// 连接管理器错误定义
var (
	// ErrNoHost 未设置 Host
	ErrNoHost = errors.New("connmgr: no host set")

	// ErrAlreadyStarted 重复启动
	ErrAlreadyStarted = errors.New("connmgr: already started")
)

// 拒绝原因（指标标签）
const (
	refuseMaxConns = "max_connections"
	refuseRate     = "rate_limited"
)
