// Package peerstore 实现节点信息存储
//
// 内存地址簿：记录已知节点的多地址（带 TTL）、支持的协议与代理版本。
// 条目总数受 LRU 容量约束，超出时淘汰最久未访问的节点；过期地址在
// 读取时惰性剔除。
//
//	ps := peerstore.New(peerstore.NewConfig())
//	ps.AddAddrs(id, addrs, peerstore.ConnectedAddrTTL)
//	addrs := ps.Addrs(id)
package peerstore
