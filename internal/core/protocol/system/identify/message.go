package identify

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

const (
	fieldListenAddrs  protowire.Number = 1
	fieldProtocols    protowire.Number = 2
	fieldAgentVersion protowire.Number = 3
)

// ErrMalformed 消息格式错误
var ErrMalformed = errors.New("identify: malformed message")

// Info 节点身份信息
type Info struct {
	Peer         types.NodeID
	ListenAddrs  []types.Multiaddr
	Protocols    []types.ProtocolID
	AgentVersion string
}

// Marshal 编码为 protobuf 线格式
func (i *Info) Marshal() []byte {
	var b []byte
	for _, a := range i.ListenAddrs {
		b = protowire.AppendTag(b, fieldListenAddrs, protowire.BytesType)
		b = protowire.AppendString(b, a.String())
	}
	for _, p := range i.Protocols {
		b = protowire.AppendTag(b, fieldProtocols, protowire.BytesType)
		b = protowire.AppendString(b, string(p))
	}
	if i.AgentVersion != "" {
		b = protowire.AppendTag(b, fieldAgentVersion, protowire.BytesType)
		b = protowire.AppendString(b, i.AgentVersion)
	}
	return b
}

// Unmarshal 解码 protobuf 线格式
//
// 无法解析的地址被跳过，未知字段被忽略。
func (i *Info) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeString(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldListenAddrs:
			if a, err := types.ParseMultiaddr(v); err == nil {
				i.ListenAddrs = append(i.ListenAddrs, a.WithoutPeerID())
			}
		case fieldProtocols:
			i.Protocols = append(i.Protocols, types.ProtocolID(v))
		case fieldAgentVersion:
			i.AgentVersion = v
		}
	}
	return nil
}
