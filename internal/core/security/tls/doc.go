// Package tls 提供 QUIC 使用的 TLS 1.3 配置
//
// 证书直接使用节点 Ed25519 身份私钥自签名，对端 NodeID 从证书公钥派生，
// 不依赖 CA。拨号时校验派生出的 NodeID 与期望一致。
package tls
