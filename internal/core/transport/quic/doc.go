// Package quic 提供基于 QUIC 的传输层实现
//
// QUIC 自带 TLS 1.3 加密与原生流多路复用，不经过 upgrader。
// 双方以 Ed25519 身份自签名证书互相认证，NodeID 从证书公钥派生。
//
// 每个监听地址独占一个 UDP socket 和 quic.Transport；出站拨号复用
// 第一个监听 socket，未监听时使用临时端口。
//
// 地址格式：/ip4/<ip>/udp/<port>/quic-v1
package quic
