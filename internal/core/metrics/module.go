package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
)

// Params Metrics 依赖参数
type Params struct {
	fx.In

	Config     *config.Config        `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
}

// Output 模块输出
type Output struct {
	fx.Out

	Metrics  *Metrics
	Gatherer prometheus.Gatherer
}

// ProvideMetrics 提供指标收集器
//
// 未注入 Registerer 时使用独立的 Registry；注入的 Registerer 同时实现
// Gatherer 时一并导出。指标关闭时 Metrics 与 Gatherer 均为 nil。
func ProvideMetrics(p Params) (Output, error) {
	if p.Config != nil && !p.Config.Metrics.Enable {
		return Output{}, nil
	}

	reg := p.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m, err := New(reg)
	if err != nil {
		return Output{}, err
	}

	out := Output{Metrics: m}
	if g, ok := reg.(prometheus.Gatherer); ok {
		out.Gatherer = g
	}
	return out, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideMetrics),
	)
}
