// Package websocket 提供基于 WebSocket 的传输层实现
//
// 用于仅允许 HTTP 出站的网络环境。WebSocket 二进制消息被适配为
// net.Conn 字节流，再经 upgrader 完成 Noise + yamux 升级。
//
// 地址格式：/ip4/<ip>/tcp/<port>/ws
package websocket
