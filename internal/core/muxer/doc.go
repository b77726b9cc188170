// Package muxer 提供基于 yamux 的流多路复用
//
// TCP 与 WebSocket 连接在 Noise 握手后由 yamux 复用为多条双向流。
// QUIC 自带多路复用，不经过本包。
//
// 半关闭语义：yamux 的 Stream.Close 只发送 FIN，本端仍可读取直到对端
// FIN，因此 CloseWrite 直接映射到 yamux Close。
package muxer
