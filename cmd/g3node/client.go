package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/g3tzkp/go-g3node/internal/control"
)

// ============================================================================
//                              命令接口子命令
// ============================================================================

func newIDCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "打印节点 ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ro.client().Identity(cmd.Context())
			if err != nil {
				return fmt.Errorf("查询身份失败: %w", err)
			}
			return ro.print(cmd.OutOrStdout(), control.IdentityResponse{ID: id}, id)
		},
	}
}

func newStatusCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "打印节点状态",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := ro.client().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("查询状态失败: %w", err)
			}
			return ro.print(cmd.OutOrStdout(), st, formatStatus(st))
		},
	}
}

func formatStatus(st control.StatusResponse) string {
	var b strings.Builder
	state := "offline"
	if st.Online {
		state = "online"
	}
	fmt.Fprintf(&b, "ID:     %s\n", st.ID)
	fmt.Fprintf(&b, "State:  %s\n", state)
	fmt.Fprintf(&b, "Peers:  %d\n", st.Peers)
	b.WriteString("Addrs:")
	if len(st.Addrs) == 0 {
		b.WriteString("  (none)")
	}
	for _, a := range st.Addrs {
		fmt.Fprintf(&b, "\n  %s", a)
	}
	return b.String()
}

func newSendCmd(ro *rootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "向节点发送消息",
		Long: `向节点发送一条文本消息并等待确认。

<peer> 可以是节点 ID，也可以是以 /p2p/<ID> 结尾的地址。
对端未确认或发送失败时以非零状态退出。`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args[1:], " ")
			res, err := ro.client().Send(cmd.Context(), args[0], message, timeout)
			if err != nil {
				return fmt.Errorf("发送失败: %w", err)
			}

			text := fmt.Sprintf("%s (%dms)", res.Status, res.LatencyMs)
			if res.Reason != "" {
				text = fmt.Sprintf("%s: %s (%dms)", res.Status, res.Reason, res.LatencyMs)
			}
			if err := ro.print(cmd.OutOrStdout(), res, text); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("消息未送达: %s", res.Status)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "发送超时（默认使用节点配置）")
	return cmd
}

func newPingCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping <peer>",
		Short: "测量到节点的往返时间",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rtt, err := ro.client().Ping(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("ping 失败: %w", err)
			}
			return ro.print(cmd.OutOrStdout(), control.PingResponse{
				RTT:   rtt.String(),
				RTTMs: float64(rtt) / float64(time.Millisecond),
			}, "rtt "+rtt.String())
		},
	}
}

func newWatchCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "持续打印入站消息",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err := ro.client().Watch(ctx, func(ev control.Event) error {
				text := fmt.Sprintf("%s  %s  %s",
					ev.ReceivedAt.Format(time.TimeOnly), shortID(ev.From), ev.Message)
				return ro.print(out, ev, text)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// shortID 截短节点 ID 便于阅读
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:6] + ".." + id[len(id)-4:]
}
