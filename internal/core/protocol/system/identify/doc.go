// Package identify 实现节点身份识别协议
//
// 连接建立后，发起方打开 identify 流，响应方写入自己的信息后关闭流：
//   - 监听地址
//   - 支持的协议列表
//   - 代理版本
//
// 发起方把这些信息写入 Peerstore，供后续拨号和自动补连使用。
//
// # 协议 ID
//
//	/g3zkp/sys/identify/1.0.0
//
// # 消息格式
//
// 单条 protobuf 线格式消息（无 .proto 生成代码）：
//
//	1: listen_addrs  repeated string
//	2: protocols     repeated string
//	3: agent_version string
package identify
