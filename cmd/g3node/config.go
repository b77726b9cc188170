package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/g3tzkp/go-g3node/config"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ============================================================================
//                              配置加载（CLI 专用）
// ============================================================================

// 环境变量（均使用 G3NODE_ 前缀）
const (
	envPrefix = "G3NODE_"

	envListen          = "LISTEN"            // 监听地址，逗号分隔
	envIdentityKeyFile = "IDENTITY_KEY_FILE" // 身份密钥文件
	envControlAddr     = "CONTROL_ADDR"      // 命令接口地址
	envMinConnections  = "MIN_CONNECTIONS"
	envMaxConnections  = "MAX_CONNECTIONS"
	envKnownPeers      = "KNOWN_PEERS" // 已知节点，逗号分隔
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"
	envLogFile         = "LOG_FILE"
)

// runOptions run 子命令参数
type runOptions struct {
	configFile  string
	listen      []string
	identity    string
	controlAddr string
	noControl   bool
	minConns    int
	maxConns    int
	peers       []string
	logLevel    string
	logFormat   string
	logFile     string
}

// buildConfig 合成节点配置
//
// 优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（G3NODE_* 前缀）
//  3. 配置文件（JSON 或 YAML，按扩展名）
//  4. 默认值
//
// changed 报告参数是否被显式设置；getenv 读取环境变量。
func buildConfig(o *runOptions, changed func(string) bool, getenv func(string) string) (*config.Config, error) {
	cfg := config.NewConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = config.Load(o.configFile); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg, getenv); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, o, changed); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides 应用环境变量覆盖配置
func applyEnvOverrides(cfg *config.Config, getenv func(string) string) error {
	env := func(name string) string {
		return strings.TrimSpace(getenv(envPrefix + name))
	}

	if v := env(envListen); v != "" {
		cfg.Listen = splitAndTrim(v, ",")
	}
	if v := env(envIdentityKeyFile); v != "" {
		cfg.Identity.KeyFile = v
	}
	if v := env(envControlAddr); v != "" {
		cfg.Control.Addr = v
	}
	if v := env(envMinConnections); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envMinConnections, err)
		}
		cfg.ConnMgr.MinConnections = n
	}
	if v := env(envMaxConnections); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envMaxConnections, err)
		}
		cfg.ConnMgr.MaxConnections = n
	}
	if v := env(envKnownPeers); v != "" {
		peers, err := parseKnownPeers(splitAndTrim(v, ","))
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, envKnownPeers, err)
		}
		cfg.KnownPeers = append(cfg.KnownPeers, peers...)
	}
	if v := env(envLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := env(envLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := env(envLogFile); v != "" {
		cfg.Log.File = v
	}
	return nil
}

// applyFlagOverrides 应用显式设置的命令行参数
func applyFlagOverrides(cfg *config.Config, o *runOptions, changed func(string) bool) error {
	if changed("listen") {
		cfg.Listen = o.listen
	}
	if changed("identity") {
		cfg.Identity.KeyFile = o.identity
	}
	if changed("control-addr") {
		cfg.Control.Addr = o.controlAddr
	}
	if changed("no-control") {
		cfg.Control.Enable = !o.noControl
	}
	if changed("min-conns") {
		cfg.ConnMgr.MinConnections = o.minConns
	}
	if changed("max-conns") {
		cfg.ConnMgr.MaxConnections = o.maxConns
	}
	if changed("peer") {
		peers, err := parseKnownPeers(o.peers)
		if err != nil {
			return fmt.Errorf("--peer: %w", err)
		}
		cfg.KnownPeers = append(cfg.KnownPeers, peers...)
	}
	if changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if changed("log-file") {
		cfg.Log.File = o.logFile
	}
	return nil
}

// parseKnownPeers 解析 <multiaddr>/p2p/<ID> 形式的已知节点
func parseKnownPeers(targets []string) ([]config.KnownPeer, error) {
	out := make([]config.KnownPeer, 0, len(targets))
	for _, t := range targets {
		info, err := types.ParseTarget(t)
		if err != nil {
			return nil, err
		}
		if len(info.Addrs) == 0 {
			return nil, fmt.Errorf("known peer %s has no address", info.ID.ShortString())
		}
		addrs := make([]string, len(info.Addrs))
		for i, a := range info.Addrs {
			addrs[i] = a.String()
		}
		out = append(out, config.KnownPeer{PeerID: info.ID.String(), Addrs: addrs})
	}
	return out, nil
}

// splitAndTrim 分割字符串并去除空白
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
