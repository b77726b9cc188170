package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/g3tzkp/go-g3node/internal/control"
)

// rootOptions 全局参数
type rootOptions struct {
	controlAddr string
	jsonOutput  bool
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}

	root := &cobra.Command{
		Use:   "g3node",
		Short: "g3zkp 点对点消息节点",
		Long: `g3node 运行一个点对点消息节点，并通过本地命令接口
发送消息、查询状态和订阅入站消息。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&ro.controlAddr, "control", "",
		"命令接口地址（默认 $"+envPrefix+envControlAddr+" 或 "+control.DefaultAddr+"）")
	root.PersistentFlags().BoolVar(&ro.jsonOutput, "json", false, "以 JSON 输出")

	root.AddCommand(
		newRunCmd(),
		newIDCmd(ro),
		newStatusCmd(ro),
		newSendCmd(ro),
		newPingCmd(ro),
		newWatchCmd(ro),
	)
	return root
}

// client 按 --control > 环境变量 > 默认值 创建命令接口客户端
func (o *rootOptions) client() *control.Client {
	addr := o.controlAddr
	if addr == "" {
		addr = os.Getenv(envPrefix + envControlAddr)
	}
	if addr == "" {
		addr = control.DefaultAddr
	}
	return control.NewClient(addr)
}

// print 按输出格式打印；text 为空时总是输出 JSON
func (o *rootOptions) print(w io.Writer, v any, text string) error {
	if o.jsonOutput || text == "" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
