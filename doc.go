// Package g3node 提供 g3zkp 点对点消息节点
//
// 节点接受加密的入站连接，在其上运行一个简单的消息确认协议，并允许宿主
// 应用向指定对端发送消息，带送达确认和超时取消。
//
// # 快速开始
//
//	node, err := g3node.New(
//	    g3node.WithMessageHandler(func(ev g3node.InboundMessageEvent) {
//	        fmt.Printf("%s: %s\n", ev.From.ShortString(), ev.Text())
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//
//	id, err := node.Start(ctx, []string{"/ip4/0.0.0.0/tcp/9090"}, g3node.DefaultConnectionPolicy())
//	if err != nil {
//	    return err
//	}
//	defer node.Stop(context.Background())
//
//	res := node.Send(ctx, peer, []byte("hello"))
//	if !res.Delivered() {
//	    ...
//	}
//
// # 生命周期
//
// 节点只能启动一次。Stop 开始后 Status().Online 永远为 false，
// 再次 Start 返回 ErrNodeClosed。
//
// # 发送结果
//
// Send 恰好返回一个 SendResult：Delivered、NoAcknowledgment 或
// Failed(reason)。发送错误不会以 error 形式抛出。
//
// # 文件组织
//
//   - node.go: Node 结构、状态查询
//   - node_lifecycle.go: Start / Stop
//   - node_messaging.go: Send / Ping / Subscribe
//   - fx.go: 内部模块装配
//   - options.go: 用户选项
//   - errors.go: 公共错误
//   - types.go: 公共类型别名
package g3node
