// Package host 实现覆盖网络服务
//
// Host 把传输层、连接管理、地址簿和协议协商组合为 pkg/interfaces.Overlay：
//
//   - Listen 在多个传输上监听，至少一个地址成功即可
//   - 每个连接一个入站流循环，流经 multistream-select 协商后分发给注册的处理器
//   - Dial 复用已有连接，并发拨号同一节点时合并为一次
//   - 连接建立与断开通知给 Notifee（连接管理器、identify）
//
// # 文件组织
//
//   - host.go    - Host 主体、协议注册、关闭
//   - listen.go  - 监听与入站连接
//   - dial.go    - 出站连接与出站流
//   - conn.go    - 连接封装
//   - stream.go  - 流封装
//   - addrs.go   - 可达地址
package host
