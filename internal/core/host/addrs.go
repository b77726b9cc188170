package host

import (
	"net"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Addrs 返回可达地址
//
// 监听在未指定 IP（0.0.0.0 / ::）上的地址展开为同协议族的接口地址，
// 每个地址带 /p2p/<self> 后缀。
func (h *Host) Addrs() []types.Multiaddr {
	listen := h.ListenAddrs()
	if len(listen) == 0 {
		return nil
	}

	var ifaceIPs []net.IP
	for _, a := range listen {
		if a.IsUnspecified() {
			ifaceIPs = interfaceIPs()
			break
		}
	}

	seen := make(map[types.Multiaddr]struct{})
	var out []types.Multiaddr
	add := func(a types.Multiaddr) {
		a = a.WithPeerID(h.id)
		if _, ok := seen[a]; ok {
			return
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	for _, a := range listen {
		if !a.IsUnspecified() {
			add(a)
			continue
		}
		v4 := a.IP().To4() != nil
		for _, ip := range ifaceIPs {
			if (ip.To4() != nil) == v4 {
				add(a.WithIP(ip))
			}
		}
	}
	return out
}

// interfaceIPs 返回本机接口的单播地址，链路本地地址除外
func interfaceIPs() []net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		logger.Debug("获取接口地址失败", "error", err)
		return []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback}
	}

	var ips []net.IP
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP
		if ip.IsLinkLocalUnicast() || ip.IsMulticast() {
			continue
		}
		ips = append(ips, ip)
	}
	return ips
}
