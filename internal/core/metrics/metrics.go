package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Namespace 指标命名空间
const Namespace = "g3node"

// Metrics 收集器集合
type Metrics struct {
	connsOpened   *prometheus.CounterVec
	connsActive   *prometheus.GaugeVec
	connsRefused  *prometheus.CounterVec
	streamsOpened *prometheus.CounterVec
	bytes         *prometheus.CounterVec

	messagesReceived prometheus.Counter
	decodeErrors     prometheus.Counter
	activeSessions   prometheus.Gauge
	sendResults      *prometheus.CounterVec
	sendLatency      prometheus.Histogram
	pingRTT          prometheus.Histogram
}

// New 创建并注册收集器
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		connsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "conn", Name: "opened_total",
			Help: "Connections established, by transport and direction.",
		}, []string{"transport", "direction"}),
		connsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "conn", Name: "active",
			Help: "Open connections, by transport.",
		}, []string{"transport"}),
		connsRefused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "conn", Name: "refused_total",
			Help: "Inbound connections refused by the connection policy.",
		}, []string{"reason"}),
		streamsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "stream", Name: "opened_total",
			Help: "Streams negotiated, by protocol and direction.",
		}, []string{"protocol", "direction"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "bytes_total",
			Help: "Message payload bytes, by direction.",
		}, []string{"direction"}),
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "received_total",
			Help: "Inbound messages delivered to the application.",
		}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "decode_errors_total",
			Help: "Inbound frames that failed to decode.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "active_sessions",
			Help: "Inbound stream sessions in progress.",
		}),
		sendResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "send_results_total",
			Help: "Send outcomes, by status and failure reason.",
		}, []string{"status", "reason"}),
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "messaging", Name: "send_latency_seconds",
			Help:    "Time from send start to outcome.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		pingRTT: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace, Subsystem: "ping", Name: "rtt_seconds",
			Help:    "Ping round-trip time.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("register metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.connsOpened, m.connsActive, m.connsRefused, m.streamsOpened, m.bytes,
		m.messagesReceived, m.decodeErrors, m.activeSessions,
		m.sendResults, m.sendLatency, m.pingRTT,
	}
}

// ConnOpened 记录新连接
func (m *Metrics) ConnOpened(transport string, dir types.Direction) {
	if m == nil {
		return
	}
	m.connsOpened.WithLabelValues(transport, dir.String()).Inc()
	m.connsActive.WithLabelValues(transport).Inc()
}

// ConnClosed 记录连接关闭
func (m *Metrics) ConnClosed(transport string) {
	if m == nil {
		return
	}
	m.connsActive.WithLabelValues(transport).Dec()
}

// ConnRefused 记录被拒绝的入站连接
func (m *Metrics) ConnRefused(reason string) {
	if m == nil {
		return
	}
	m.connsRefused.WithLabelValues(reason).Inc()
}

// StreamOpened 记录协商完成的流
func (m *Metrics) StreamOpened(proto types.ProtocolID, dir types.Direction) {
	if m == nil {
		return
	}
	m.streamsOpened.WithLabelValues(string(proto), dir.String()).Inc()
}

// MessageReceived 记录交付给应用的入站消息
func (m *Metrics) MessageReceived(size int) {
	if m == nil {
		return
	}
	m.messagesReceived.Inc()
	m.bytes.WithLabelValues(types.DirInbound.String()).Add(float64(size))
}

// DecodeError 记录解码失败
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// SessionStarted 入站会话开始
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionEnded 入站会话结束
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// SendResult 记录一次发送结果
func (m *Metrics) SendResult(r types.SendResult, size int) {
	if m == nil {
		return
	}
	m.sendResults.WithLabelValues(r.Status.String(), r.Reason).Inc()
	m.sendLatency.Observe(r.Latency.Seconds())
	if r.Status != types.SendFailed {
		m.bytes.WithLabelValues(types.DirOutbound.String()).Add(float64(size))
	}
}

// PingRTT 记录 ping 往返时间
func (m *Metrics) PingRTT(seconds float64) {
	if m == nil {
		return
	}
	m.pingRTT.Observe(seconds)
}
