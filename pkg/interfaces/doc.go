// Package interfaces 定义 g3node 公共接口
//
// 消息层只通过这里的 Overlay 能力集使用覆盖网络服务：协议注册、拨号、
// 自身身份与可达地址查询。原始传输、加密和多路复用都在 Overlay 之后。
//
// # 文件组织
//
//   - overlay.go    - Overlay, Stream, Conn, StreamHandler
//   - transport.go  - Transport, Listener, CapableConn, MuxedStream, ConnGater
package interfaces
