package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/g3tzkp/go-g3node/pkg/lib/log"
)

// ControlConfig 宿主应用命令接口配置
type ControlConfig struct {
	// Enable 是否启用 HTTP 命令接口
	Enable bool `json:"enable" yaml:"enable"`

	// Addr 监听地址，默认仅绑定回环
	Addr string `json:"addr" yaml:"addr"`

	// Pprof 是否在命令接口上暴露 /debug/pprof/
	Pprof bool `json:"pprof,omitempty" yaml:"pprof,omitempty"`
}

// DefaultControlConfig 返回默认命令接口配置
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		Enable: true,
		Addr:   "127.0.0.1:9190",
	}
}

// Validate 验证命令接口配置
func (c ControlConfig) Validate() error {
	if !c.Enable {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("control: invalid addr %q: %w", c.Addr, err)
	}
	return nil
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Enable 启用后在命令接口上暴露 /metrics
	Enable bool `json:"enable" yaml:"enable"`
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enable: true}
}

// LogConfig 日志配置
type LogConfig struct {
	// Level debug / info / warn / error
	Level string `json:"level" yaml:"level"`

	// Format text / json
	Format string `json:"format" yaml:"format"`

	// File 日志文件，为空时输出到 stderr
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: log.FormatText,
	}
}

// Validate 验证日志配置
func (c LogConfig) Validate() error {
	if _, err := log.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if c.Format != "" && c.Format != log.FormatText && c.Format != log.FormatJSON {
		return errors.New("log: format must be text or json")
	}
	return nil
}
