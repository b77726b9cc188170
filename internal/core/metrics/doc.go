// Package metrics 提供监控指标收集
//
// 基于 prometheus/client_golang 的收集器集合，覆盖连接、流、消息收发与
// ping 延迟。所有记录方法对 nil *Metrics 安全，组件在指标关闭时无需判空。
//
//	m, _ := metrics.New(prometheus.NewRegistry())
//	m.ConnOpened(types.TransportTCP, types.DirInbound)
//	m.SendResult(result)
//
// # Fx 模块
//
// Module 按 config.Metrics.Enable 提供 *Metrics（关闭时为 nil）与
// prometheus.Gatherer（供控制接口 /metrics 导出）。
package metrics
