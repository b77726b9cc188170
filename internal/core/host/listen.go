package host

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Listen 监听指定地址
//
// 至少一个地址成功即返回 nil；全部失败时返回包含每个地址错误的汇总错误。
func (h *Host) Listen(addrs ...types.Multiaddr) error {
	if h.closed.Load() {
		return ErrHostClosed
	}
	if len(addrs) == 0 {
		return ErrNoListenAddrs
	}

	var errs error
	succeeded := 0
	for _, addr := range addrs {
		if err := h.listenAddr(addr); err != nil {
			logger.Warn("监听地址失败", "addr", addr, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("listen %s: %w", addr, err))
			continue
		}
		succeeded++
	}

	if succeeded == 0 {
		return fmt.Errorf("failed to listen on any address: %w", errs)
	}
	logger.Info("监听成功", "succeeded", succeeded, "total", len(addrs))
	return nil
}

// listenAddr 监听单个地址
func (h *Host) listenAddr(addr types.Multiaddr) error {
	t, err := h.transports.ForAddr(addr)
	if err != nil {
		return err
	}
	l, err := t.Listen(addr)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed.Load() {
		h.mu.Unlock()
		_ = l.Close()
		return ErrHostClosed
	}
	h.listeners = append(h.listeners, l)
	h.wg.Add(1)
	h.mu.Unlock()

	logger.Debug("监听地址成功", "addr", l.Multiaddr())
	go h.acceptLoop(l)
	return nil
}

// acceptLoop 接受入站连接
func (h *Host) acceptLoop(l pkgif.Listener) {
	defer h.wg.Done()

	for {
		cc, err := l.Accept()
		if err != nil {
			if !errors.Is(err, pkgif.ErrListenerClosed) && !h.closed.Load() {
				logger.Warn("监听器退出", "addr", l.Multiaddr(), "error", err)
			}
			return
		}
		if _, err := h.addConn(cc, types.DirInbound); err != nil {
			logger.Debug("拒绝入站连接", "peer", cc.RemotePeer().ShortString(), "error", err)
		}
	}
}

// ListenAddrs 返回实际绑定的监听地址
func (h *Host) ListenAddrs() []types.Multiaddr {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.Multiaddr, 0, len(h.listeners))
	for _, l := range h.listeners {
		out = append(out, l.Multiaddr())
	}
	return out
}
