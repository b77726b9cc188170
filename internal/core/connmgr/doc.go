// Package connmgr 实现连接策略执行
//
// Manager 按 config.ConnectionPolicy 管理连接数量：
//
//   - 准入：连接数达到 MaxConnections 时拒绝入站连接；令牌桶限制入站速率
//   - 裁剪：每个 PollInterval 检查一次，超过上限时关闭最早建立且无活跃
//     流的连接，直到回到上限
//   - 自动拨号：AutoDial 开启时每个 AutoDialInterval 检查一次，低于
//     MinConnections 时从 peerstore 中挑选未连接的节点拨号补足
//
// 出站连接不受上限约束，超出部分由下一次裁剪处理。
package connmgr
