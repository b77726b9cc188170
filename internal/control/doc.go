// Package control 实现宿主应用的命令接口
//
// 接口绑定在回环地址（默认 127.0.0.1:9190），不做认证：
//
//	GET  /v1/identity   节点 ID
//	GET  /v1/status     在线状态、地址、连接数
//	POST /v1/messages   发送消息，返回发送结果
//	POST /v1/ping       测量往返时间
//	GET  /v1/events     websocket，逐条推送入站消息
//	GET  /metrics       Prometheus 指标（启用指标时）
//
// Client 是对应的 HTTP 客户端，cmd/g3node 的子命令通过它访问运行中的节点。
package control
