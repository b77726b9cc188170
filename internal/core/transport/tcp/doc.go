// Package tcp 提供基于 TCP 的传输层实现
//
// TCP 是 QUIC 的备选方案，用于 UDP 被防火墙阻止的环境。
// TCP 不提供原生加密与多路复用，连接经 upgrader 完成 Noise + yamux 升级。
//
// 地址格式：/ip4/<ip>/tcp/<port>、/ip6/<ip>/tcp/<port>、/dns4/<host>/tcp/<port>
package tcp
