// Package security 提供连接加密和身份验证
//
// 两种安全通道：
//   - noise: Noise XX 握手，用于 TCP 和 WebSocket 原始连接
//   - tls: TLS 1.3 自签名证书，用于 QUIC
//
// 两者都把对端身份绑定到其 Ed25519 公钥：NodeID = SHA256(PublicKey)。
// 拨号时指定期望的 NodeID，握手得到的身份不一致则拒绝连接。
package security
