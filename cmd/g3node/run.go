package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	g3node "github.com/g3tzkp/go-g3node"
	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/internal/control"
	"github.com/g3tzkp/go-g3node/pkg/lib/log"
)

var logger = log.Logger("cmd/g3node")

// shutdownTimeout 收到退出信号后的停止超时
const shutdownTimeout = 15 * time.Second

func newRunCmd() *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "启动节点",
		Long: `启动节点和本地命令接口，直到收到 SIGINT 或 SIGTERM。

配置优先级：命令行参数 > 环境变量（G3NODE_*） > 配置文件 > 默认值。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(o, cmd.Flags().Changed, os.Getenv)
			if err != nil {
				return err
			}
			return runNode(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", "", "配置文件路径（.json / .yaml）")
	f.StringSliceVar(&o.listen, "listen", nil, "监听地址（multiaddr，可重复）")
	f.StringVar(&o.identity, "identity", "", "身份密钥文件路径")
	f.StringVar(&o.controlAddr, "control-addr", "", "命令接口监听地址")
	f.BoolVar(&o.noControl, "no-control", false, "不启动命令接口")
	f.IntVar(&o.minConns, "min-conns", 0, "最少连接数")
	f.IntVar(&o.maxConns, "max-conns", 0, "最多连接数")
	f.StringArrayVar(&o.peers, "peer", nil, "已知节点 <multiaddr>/p2p/<ID>（可重复）")
	f.StringVar(&o.logLevel, "log-level", "", "日志级别 debug/info/warn/error")
	f.StringVar(&o.logFormat, "log-format", "", "日志格式 text/json")
	f.StringVar(&o.logFile, "log-file", "", "日志文件路径")
	return cmd
}

// runNode 启动节点并阻塞到退出信号
func runNode(parent context.Context, out io.Writer, cfg *config.Config) error {
	closeLog, err := setupLogging(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v，日志输出到 stderr\n", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	node, err := g3node.New(
		g3node.WithConfig(cfg),
		g3node.WithMessageHandler(func(ev g3node.InboundMessageEvent) {
			logger.Info("收到消息", "from", ev.From.ShortString(), "size", len(ev.Payload))
		}),
		g3node.WithErrorHandler(func(err error) {
			logger.Warn("入站协议错误", "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("创建节点失败: %w", err)
	}

	if _, err := node.Start(ctx, nil, cfg.ConnMgr); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}

	var ctrl *control.Server
	if cfg.Control.Enable {
		ctrl = control.New(control.Config{
			Addr:     cfg.Control.Addr,
			Node:     node,
			Gatherer: node.Gatherer(),
			Pprof:    cfg.Control.Pprof,
		})
		if err := ctrl.Start(ctx); err != nil {
			_ = node.Stop(context.Background())
			return fmt.Errorf("启动命令接口失败: %w", err)
		}
	}

	printNodeInfo(out, node, ctrl)
	fmt.Fprintln(out, "节点已启动，按 Ctrl+C 退出")

	<-ctx.Done()
	fmt.Fprintln(out, "\n正在关闭节点...")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	if ctrl != nil {
		errs = multierr.Append(errs, ctrl.Stop())
	}
	return multierr.Append(errs, node.Stop(stopCtx))
}

// setupLogging 按配置设置全局日志，返回关闭日志文件的函数
func setupLogging(cfg config.LogConfig) (func(), error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.LevelInfo
	}

	if cfg.File == "" {
		log.Setup(level, cfg.Format, nil)
		return func() {}, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o750); err != nil {
		log.Setup(level, cfg.Format, nil)
		return func() {}, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, ferr := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if ferr != nil {
		log.Setup(level, cfg.Format, nil)
		return func() {}, fmt.Errorf("打开日志文件失败: %w", ferr)
	}

	log.Setup(level, cfg.Format, file)
	return func() { _ = file.Close() }, err
}

// printNodeInfo 打印节点信息，地址可直接作为 send / ping 的目标
func printNodeInfo(w io.Writer, node *g3node.Node, ctrl *control.Server) {
	st := node.Status()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "节点 ID:   %s\n", st.ID)
	fmt.Fprintln(w, "监听地址:")
	for _, a := range st.Addrs {
		fmt.Fprintf(w, "  %s\n", a)
	}
	if ctrl != nil {
		fmt.Fprintf(w, "命令接口:  http://%s\n", ctrl.Addr())
	}
	fmt.Fprintln(w)
}
