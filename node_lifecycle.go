package g3node

import (
	"context"
	"fmt"
	"time"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期常量
// ════════════════════════════════════════════════════════════════════════════

const (
	// initializeTimeout 启动超时（Fx App Start）
	initializeTimeout = 30 * time.Second

	// stopTimeout ctx 无截止时间时的停止超时
	stopTimeout = 15 * time.Second
)

// ════════════════════════════════════════════════════════════════════════════
//                              生命周期管理
// ════════════════════════════════════════════════════════════════════════════

// Start 启动节点
//
// 启动顺序：
//  1. 校验连接策略与配置
//  2. 组装内部模块，注册所有协议处理器
//  3. 监听地址（至少一个绑定成功），启动连接管理
//
// listenAddrs 为空时使用配置中的监听地址。失败返回 *StartupError；
// 策略无效时错误同时匹配 ErrInvalidPolicy。
func (n *Node) Start(ctx context.Context, listenAddrs []string, policy ConnectionPolicy) (types.NodeID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case StateStopping, StateStopped:
		return types.EmptyNodeID, ErrNodeClosed
	case StateStarting, StateRunning:
		return types.EmptyNodeID, ErrAlreadyStarted
	}

	// ════════════════════════════════════════════════════════════════════════
	// Phase 1: 校验
	// ════════════════════════════════════════════════════════════════════════
	if err := policy.Validate(); err != nil {
		return types.EmptyNodeID, &StartupError{Op: "policy", Err: err}
	}

	cfg := *n.config
	cfg.ConnMgr = policy
	if len(listenAddrs) > 0 {
		cfg.Listen = append([]string(nil), listenAddrs...)
	}
	if err := cfg.Validate(); err != nil {
		return types.EmptyNodeID, &StartupError{Op: "config", Err: err}
	}

	// ════════════════════════════════════════════════════════════════════════
	// Phase 2: 组装
	// ════════════════════════════════════════════════════════════════════════
	n.state = StateStarting
	logger.Info("正在启动节点", "nodeID", n.identity.ID().ShortString())

	app := buildFxApp(&cfg, n.opts, n)
	if err := app.Err(); err != nil {
		n.state = StateIdle
		return types.EmptyNodeID, &StartupError{Op: "assemble", Err: err}
	}

	// ════════════════════════════════════════════════════════════════════════
	// Phase 3: 启动
	// ════════════════════════════════════════════════════════════════════════
	startCtx, cancel := context.WithTimeout(ctx, initializeTimeout)
	defer cancel()

	// 失败时 Fx 会回滚已执行的 OnStart
	if err := app.Start(startCtx); err != nil {
		n.state = StateIdle
		n.clearComponents()
		logger.Error("节点启动失败", "error", err)
		return types.EmptyNodeID, &StartupError{Op: "start", Err: err}
	}

	n.app = app
	n.config = &cfg
	n.state = StateRunning
	n.online.Store(true)

	logger.Info("节点启动成功",
		"nodeID", n.identity.ID().ShortString(),
		"addrs", n.host.Addrs())
	return n.identity.ID(), nil
}

// Stop 停止节点
//
// 先标记离线，再按启动的逆序停止所有组件：关闭消息服务（释放全部入站会话、
// 取消进行中的发送），关闭 Host 和传输。幂等；停止后节点不可重启。
func (n *Node) Stop(ctx context.Context) error {
	n.online.Store(false)

	n.mu.Lock()
	switch n.state {
	case StateStopping, StateStopped:
		n.mu.Unlock()
		return nil
	case StateIdle:
		n.state = StateStopped
		n.mu.Unlock()
		return nil
	}
	n.state = StateStopping
	// 与持锁完成的 Start 串行：Start 可能在上面的 Store 之后才置为在线
	n.online.Store(false)
	app := n.app
	n.mu.Unlock()

	logger.Info("正在停止节点")

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, stopTimeout)
		defer cancel()
	}

	// 不持有 n.mu：入站回调可能在停止期间查询节点状态
	err := app.Stop(ctx)

	n.mu.Lock()
	n.state = StateStopped
	n.mu.Unlock()

	if err != nil {
		logger.Warn("停止节点时出错", "error", err)
		return fmt.Errorf("stop: %w", err)
	}

	logger.Info("节点已停止")
	return nil
}

// Close 停止节点，等价于 Stop(context.Background())
func (n *Node) Close() error {
	return n.Stop(context.Background())
}

// clearComponents 清除启动失败时注入的组件
func (n *Node) clearComponents() {
	n.host = nil
	n.messaging = nil
	n.bus = nil
	n.connmgr = nil
	n.metrics = nil
	n.gatherer = nil
}
