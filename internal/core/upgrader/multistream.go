package upgrader

import (
	"context"
	"fmt"
	"net"
	"time"

	mss "github.com/multiformats/go-multistream"
)

const (
	// defaultNegotiateTimeout 默认协商超时
	defaultNegotiateTimeout = 60 * time.Second
)

// negotiate 通过 multistream-select 在候选协议中选定一个
//
// 服务器端使用 MultistreamMuxer.Negotiate()，客户端使用 SelectOneOf()。
func negotiate(ctx context.Context, conn net.Conn, protocols []string, isServer bool) (string, error) {
	deadline := time.Now().Add(defaultNegotiateTimeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("set deadline: %w", err)
	}
	defer conn.SetDeadline(time.Time{}) // 清除超时

	if isServer {
		muxer := mss.NewMultistreamMuxer[string]()
		for _, p := range protocols {
			muxer.AddHandler(p, nil)
		}
		selected, _, err := muxer.Negotiate(conn)
		if err != nil {
			return "", fmt.Errorf("server negotiation: %w", err)
		}
		return selected, nil
	}

	selected, err := mss.SelectOneOf(protocols, conn)
	if err != nil {
		return "", fmt.Errorf("client negotiation: %w", err)
	}
	return selected, nil
}
