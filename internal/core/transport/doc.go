// Package transport 实现传输层管理
//
// 按配置创建 QUIC、TCP、WebSocket 传输，并按地址选择传输。
//
// 子包：
//   - tcp: TCP 传输（Noise + yamux 升级）
//   - websocket: WebSocket 传输（Noise + yamux 升级）
//   - quic: QUIC 传输（TLS 1.3 + 原生流）
package transport
