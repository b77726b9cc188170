// Package messaging 实现点对点消息协议
//
// 协议 ID 为 /g3zkp/1.0.0。每条消息是一个长度前缀帧：
//
//	uvarint(len) || payload
//
// payload 必须是合法的 UTF-8 文本，长度不超过 MaxMessageSize。
//
// # 入站
//
// 每个入站流由一个 Session 驱动，状态转换为：
//
//	Open → Reading → Responding → Reading … → Closed
//
// 每解码一帧，先把 InboundMessageEvent 同步交给宿主，再在同一流上回写
// 确认帧 "ACK"。解码失败时流被关闭，ProtocolDecodeError 交给错误回调；
// 对端关闭写端或任何 I/O 错误都进入 Closed。Closed 是终态，流只释放一次。
// 一个流上的错误不影响其他流。
//
// # 出站
//
// Service.Send 对每次调用返回恰好一个 SendResult：
//
//   - Delivered：读到 ACK 帧
//   - NoAcknowledgment：对端结束流而未发送 ACK
//   - Failed(reason)：目标无效、拨号失败、超时或流错误
//
// 拨号、写入和等待确认共用一个由超时派生的 context；context 结束时流被
// 重置，调用返回时不留下任何网络资源。
package messaging
