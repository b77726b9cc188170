// Package protocol 装配系统协议
//
// 在 Host 开始监听之前注册 ping 与 identify 处理器，并把 identify
// 服务挂到 Host 的连接事件上。
//
// 系统协议实现位于 system/ 子目录：
//   - system/ping      存活检测
//   - system/identify  身份识别
package protocol
