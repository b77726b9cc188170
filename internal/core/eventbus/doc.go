// Package eventbus 实现类型化的事件扇出
//
// Bus 把一个发射方的事件复制给所有订阅者。每个订阅者拥有独立的有界缓冲，
// 发射永不阻塞：缓冲已满的订阅者丢弃该事件，并以限频的方式记录慢消费者警告。
//
// # 使用
//
//	bus := eventbus.New[types.InboundMessageEvent]()
//	sub := bus.Subscribe(64)
//	defer sub.Close()
//
//	for ev := range sub.Out() {
//	    ...
//	}
//
// Bus.Close 之后所有订阅通道被关闭，新的订阅立即得到已关闭的通道。
package eventbus
