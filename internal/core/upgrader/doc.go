// Package upgrader 实现连接升级器
//
// 将原始 net.Conn 升级为 interfaces.CapableConn：
//
//  1. multistream-select 协商安全协议（/noise）
//  2. Noise XX 握手，认证双方 NodeID
//  3. multistream-select 协商多路复用器（/yamux/1.0.0）
//  4. 建立 yamux 会话
//
// 任一步骤失败都会关闭原始连接。QUIC 不经过升级器。
//
// Listen 包装原始 net.Listener，在独立 goroutine 中并发升级入站连接，
// 握手缓慢的对端不会阻塞接受循环。
package upgrader
