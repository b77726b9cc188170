package peerstore

import (
	"math"
	"time"
)

// 地址 TTL 常量
const (
	// PermanentAddrTTL 永久地址（配置中的已知节点）
	PermanentAddrTTL = time.Duration(math.MaxInt64 - 1)

	// ConnectedAddrTTL 连接成功的地址
	ConnectedAddrTTL = 30 * time.Minute

	// RecentlyConnectedAddrTTL 连接断开后保留的时间
	RecentlyConnectedAddrTTL = 15 * time.Minute

	// IdentifyAddrTTL identify 协议报告的地址
	IdentifyAddrTTL = 10 * time.Minute

	// TempAddrTTL 临时地址（一次性拨号目标）
	TempAddrTTL = 2 * time.Minute
)
