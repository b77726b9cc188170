// Package ping 实现存活检测协议
//
// ping 协议用于检测节点是否存活，测量往返延迟（RTT）。
//
// # 协议 ID
//
//	/g3zkp/sys/ping/1.0.0
//
// # 消息格式
//
// 请求和响应都是 32 字节的随机数据，响应必须与请求相同。同一条流上
// 可以连续 ping。
//
// # 使用示例
//
//	rtt, err := ping.Ping(ctx, overlay, target)
//	if err != nil {
//	    return fmt.Errorf("节点不可达: %w", err)
//	}
package ping
