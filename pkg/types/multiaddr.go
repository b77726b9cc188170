package types

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ============================================================================
//                              Multiaddr - 统一地址类型
// ============================================================================

// Multiaddr 统一地址类型（值对象）
//
// Multiaddr 是 g3node 内部唯一的地址表示形式，String() 始终返回
// canonical 形式（以 "/" 开头）。
//
// 支持的格式：
//   - /ip4/192.168.1.1/tcp/9090
//   - /ip4/0.0.0.0/tcp/9091/ws
//   - /ip6/::1/udp/9090/quic-v1
//   - /dns4/example.com/tcp/9090/p2p/<NodeID>
type Multiaddr string

// 传输协议名称
const (
	TransportTCP       = "tcp"
	TransportWebSocket = "ws"
	TransportQUIC      = "quic-v1"
)

// Multiaddr 错误定义
var (
	// ErrInvalidMultiaddr 无效的 multiaddr 格式
	ErrInvalidMultiaddr = errors.New("invalid multiaddr format")

	// ErrEmptyMultiaddr 空 multiaddr
	ErrEmptyMultiaddr = errors.New("empty multiaddr")

	// ErrNotMultiaddrFormat 不是 multiaddr 格式（不以 / 开头）
	ErrNotMultiaddrFormat = errors.New("not multiaddr format: must start with /")

	// ErrMissingTransport 缺少传输协议
	ErrMissingTransport = errors.New("missing transport protocol")

	// ErrInvalidPeerTarget 无效的目标节点标识
	ErrInvalidPeerTarget = errors.New("invalid peer target")
)

// maddr 解析后的地址组件
type maddr struct {
	hostProto string // ip4 / ip6 / dns4 / dns6
	host      string
	netProto  string // tcp / udp
	port      int
	transport string // tcp / ws / quic-v1；仅 /p2p 时为空
	peer      NodeID
}

func (a maddr) String() string {
	var b strings.Builder
	if a.hostProto != "" {
		fmt.Fprintf(&b, "/%s/%s/%s/%d", a.hostProto, a.host, a.netProto, a.port)
		switch a.transport {
		case TransportWebSocket:
			b.WriteString("/ws")
		case TransportQUIC:
			b.WriteString("/quic-v1")
		}
	}
	if !a.peer.IsEmpty() {
		b.WriteString("/p2p/")
		b.WriteString(a.peer.String())
	}
	return b.String()
}

func parseMaddr(s string) (maddr, error) {
	var a maddr

	s = strings.TrimSpace(s)
	if s == "" {
		return a, ErrEmptyMultiaddr
	}
	if !strings.HasPrefix(s, "/") {
		return a, ErrNotMultiaddrFormat
	}

	parts := strings.Split(strings.TrimSuffix(s[1:], "/"), "/")
	next := func() (string, bool) {
		if len(parts) == 0 {
			return "", false
		}
		p := parts[0]
		parts = parts[1:]
		return p, true
	}

	proto, _ := next()
	switch proto {
	case "ip4", "ip6":
		v, ok := next()
		ip := net.ParseIP(v)
		if !ok || ip == nil || (proto == "ip4") != (ip.To4() != nil) {
			return a, fmt.Errorf("%w: bad %s value %q", ErrInvalidMultiaddr, proto, v)
		}
		a.hostProto, a.host = proto, ip.String()
	case "dns", "dns4", "dns6":
		v, ok := next()
		if !ok || v == "" {
			return a, fmt.Errorf("%w: missing %s host", ErrInvalidMultiaddr, proto)
		}
		a.hostProto, a.host = proto, strings.ToLower(v)
	case "p2p":
		return parsePeerSuffix(a, parts)
	default:
		return a, fmt.Errorf("%w: unsupported protocol %q", ErrInvalidMultiaddr, proto)
	}

	netProto, ok := next()
	if !ok {
		return a, ErrMissingTransport
	}
	if netProto != "tcp" && netProto != "udp" {
		return a, fmt.Errorf("%w: unsupported protocol %q", ErrInvalidMultiaddr, netProto)
	}
	v, _ := next()
	port, err := strconv.Atoi(v)
	if err != nil || port < 0 || port > 65535 {
		return a, fmt.Errorf("%w: bad port %q", ErrInvalidMultiaddr, v)
	}
	a.netProto, a.port = netProto, port

	a.transport = TransportTCP
	if netProto == "udp" {
		if p, _ := next(); p != TransportQUIC {
			return a, fmt.Errorf("%w: udp requires quic-v1", ErrMissingTransport)
		}
		a.transport = TransportQUIC
	} else if len(parts) > 0 && parts[0] == TransportWebSocket {
		parts = parts[1:]
		a.transport = TransportWebSocket
	}

	if len(parts) == 0 {
		return a, nil
	}
	if parts[0] != "p2p" {
		return a, fmt.Errorf("%w: unexpected component %q", ErrInvalidMultiaddr, parts[0])
	}
	return parsePeerSuffix(a, parts[1:])
}

func parsePeerSuffix(a maddr, parts []string) (maddr, error) {
	if len(parts) != 1 {
		return a, fmt.Errorf("%w: bad /p2p component", ErrInvalidMultiaddr)
	}
	id, err := ParseNodeID(parts[0])
	if err != nil {
		return a, fmt.Errorf("%w: %w", ErrInvalidMultiaddr, err)
	}
	a.peer = id
	return a, nil
}

// ============================================================================
//                              解析/构建
// ============================================================================

// ParseMultiaddr 解析并规范化 multiaddr
//
// 仅接受 multiaddr 格式输入（以 "/" 开头）。
func ParseMultiaddr(s string) (Multiaddr, error) {
	a, err := parseMaddr(s)
	if err != nil {
		return "", err
	}
	return Multiaddr(a.String()), nil
}

// MustParseMultiaddr 解析 multiaddr，失败时 panic
//
// 仅用于常量和测试。
func MustParseMultiaddr(s string) Multiaddr {
	m, err := ParseMultiaddr(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromNetAddr 从 net.Addr 构建 Multiaddr
//
// transport 为 TransportTCP / TransportWebSocket / TransportQUIC。
func FromNetAddr(addr net.Addr, transport string) (Multiaddr, error) {
	var (
		ip   net.IP
		port int
	)
	switch na := addr.(type) {
	case *net.TCPAddr:
		ip, port = na.IP, na.Port
	case *net.UDPAddr:
		ip, port = na.IP, na.Port
	default:
		host, p, err := net.SplitHostPort(addr.String())
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidMultiaddr, err)
		}
		ip = net.ParseIP(host)
		port, _ = strconv.Atoi(p)
	}
	if ip == nil {
		return "", fmt.Errorf("%w: no ip in %s", ErrInvalidMultiaddr, addr)
	}

	a := maddr{host: ip.String(), port: port, transport: transport}
	if ip.To4() != nil {
		a.hostProto, a.host = "ip4", ip.To4().String()
	} else {
		a.hostProto = "ip6"
	}
	switch transport {
	case TransportQUIC:
		a.netProto = "udp"
	case TransportTCP, TransportWebSocket:
		a.netProto = "tcp"
	default:
		return "", fmt.Errorf("%w: unknown transport %q", ErrMissingTransport, transport)
	}
	return Multiaddr(a.String()), nil
}

// ============================================================================
//                              访问方法
// ============================================================================

// String 返回 canonical multiaddr 字符串
func (m Multiaddr) String() string {
	return string(m)
}

// IsEmpty 是否为空
func (m Multiaddr) IsEmpty() bool {
	return m == ""
}

// Transport 返回传输协议（tcp / ws / quic-v1），无法解析时返回空串
func (m Multiaddr) Transport() string {
	a, err := parseMaddr(string(m))
	if err != nil {
		return ""
	}
	return a.transport
}

// PeerID 返回 /p2p/ 组件中的节点 ID，不存在时返回 EmptyNodeID
func (m Multiaddr) PeerID() NodeID {
	a, err := parseMaddr(string(m))
	if err != nil {
		return EmptyNodeID
	}
	return a.peer
}

// IP 返回地址中的 IP，DNS 地址返回 nil
func (m Multiaddr) IP() net.IP {
	a, err := parseMaddr(string(m))
	if err != nil || (a.hostProto != "ip4" && a.hostProto != "ip6") {
		return nil
	}
	return net.ParseIP(a.host)
}

// Port 返回端口号，解析失败返回 0
func (m Multiaddr) Port() int {
	a, err := parseMaddr(string(m))
	if err != nil {
		return 0
	}
	return a.port
}

// IsLoopback 是否为回环地址
func (m Multiaddr) IsLoopback() bool {
	ip := m.IP()
	return ip != nil && ip.IsLoopback()
}

// IsUnspecified 是否为 0.0.0.0 / ::
func (m Multiaddr) IsUnspecified() bool {
	ip := m.IP()
	return ip != nil && ip.IsUnspecified()
}

// WithIP 替换 IP 组件，其他组件保持不变
func (m Multiaddr) WithIP(ip net.IP) Multiaddr {
	a, err := parseMaddr(string(m))
	if err != nil || a.hostProto == "" {
		return m
	}
	if v4 := ip.To4(); v4 != nil {
		a.hostProto, a.host = "ip4", v4.String()
	} else {
		a.hostProto, a.host = "ip6", ip.String()
	}
	return Multiaddr(a.String())
}

// WithPeerID 追加（或替换）/p2p/<id> 组件
func (m Multiaddr) WithPeerID(id NodeID) Multiaddr {
	a, err := parseMaddr(string(m))
	if err != nil {
		return m
	}
	a.peer = id
	return Multiaddr(a.String())
}

// WithoutPeerID 移除 /p2p/<id> 组件
func (m Multiaddr) WithoutPeerID() Multiaddr {
	a, err := parseMaddr(string(m))
	if err != nil {
		return m
	}
	a.peer = EmptyNodeID
	return Multiaddr(a.String())
}

// DialArgs 返回 net.Dial 使用的 network 与 host:port
//
// network 为 "tcp" 或 "udp"，WebSocket 同样返回 "tcp"。
func (m Multiaddr) DialArgs() (network, address string, err error) {
	a, err := parseMaddr(string(m))
	if err != nil {
		return "", "", err
	}
	if a.hostProto == "" {
		return "", "", ErrMissingTransport
	}
	network = a.netProto
	switch a.hostProto {
	case "ip4", "dns4":
		network += "4"
	case "ip6", "dns6":
		network += "6"
	}
	return network, net.JoinHostPort(a.host, strconv.Itoa(a.port)), nil
}

// MultiaddrsToStrings 将 Multiaddr 切片转换为字符串切片
func MultiaddrsToStrings(mas []Multiaddr) []string {
	out := make([]string, len(mas))
	for i, m := range mas {
		out[i] = m.String()
	}
	return out
}

// ParseMultiaddrs 严格解析字符串切片，遇到第一个错误即返回
func ParseMultiaddrs(strs []string) ([]Multiaddr, error) {
	out := make([]Multiaddr, 0, len(strs))
	for _, s := range strs {
		m, err := ParseMultiaddr(s)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", s, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ============================================================================
//                              AddrInfo - 节点地址信息
// ============================================================================

// AddrInfo 节点 ID 及其已知地址
type AddrInfo struct {
	ID    NodeID
	Addrs []Multiaddr
}

// String 返回可读表示
func (ai AddrInfo) String() string {
	return fmt.Sprintf("{%s: %v}", ai.ID.ShortString(), ai.Addrs)
}

// ParseTarget 解析发送目标
//
// 接受三种形式：
//   - 裸 NodeID（Base58）
//   - /p2p/<NodeID>
//   - 以 /p2p/<NodeID> 结尾的完整 multiaddr
//
// 其他形式返回 ErrInvalidPeerTarget。
func ParseTarget(s string) (AddrInfo, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AddrInfo{}, fmt.Errorf("%w: empty", ErrInvalidPeerTarget)
	}

	if !strings.HasPrefix(s, "/") {
		id, err := ParseNodeID(s)
		if err != nil {
			return AddrInfo{}, fmt.Errorf("%w: %v", ErrInvalidPeerTarget, err)
		}
		return AddrInfo{ID: id}, nil
	}

	a, err := parseMaddr(s)
	if err != nil {
		return AddrInfo{}, fmt.Errorf("%w: %v", ErrInvalidPeerTarget, err)
	}
	if a.peer.IsEmpty() {
		return AddrInfo{}, fmt.Errorf("%w: multiaddr has no /p2p component", ErrInvalidPeerTarget)
	}

	info := AddrInfo{ID: a.peer}
	if a.hostProto != "" {
		a.peer = EmptyNodeID
		info.Addrs = []Multiaddr{Multiaddr(a.String())}
	}
	return info, nil
}
