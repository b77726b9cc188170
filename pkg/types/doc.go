// Package types 定义 g3node 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 g3node 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 文件组织
//
//   - ids.go        - NodeID, ProtocolID, Direction
//   - multiaddr.go  - Multiaddr 多地址类型, AddrInfo, ParseTarget
//   - messaging.go  - InboundMessageEvent, SendResult, NodeStatus
package types
