// Package main 提供 g3node 命令行入口
//
//	g3node run                      启动节点与命令接口，直到 SIGINT/SIGTERM
//	g3node id                       打印节点 ID
//	g3node status                   打印节点状态
//	g3node send <peer> <message>    发送消息
//	g3node ping <peer>              测量往返时间
//	g3node watch                    持续打印入站消息
//
// 除 run 以外的子命令都通过命令接口访问一个运行中的节点。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
