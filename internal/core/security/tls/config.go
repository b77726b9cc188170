package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// ALPN QUIC 使用的 ALPN 协议名
const ALPN = "g3zkp"

// ConfigBuilder TLS 配置构建器
type ConfigBuilder struct {
	identity *identity.Identity
	cert     *tls.Certificate
}

// NewConfigBuilder 创建配置构建器，证书在创建时生成一次
func NewConfigBuilder(id *identity.Identity) (*ConfigBuilder, error) {
	cert, err := GenerateCertificate(id)
	if err != nil {
		return nil, err
	}
	return &ConfigBuilder{identity: id, cert: cert}, nil
}

// Certificate 返回本地证书
func (b *ConfigBuilder) Certificate() *tls.Certificate {
	return b.cert
}

// ServerConfig 构建服务端 TLS 配置
//
// 要求客户端出示证书，接受任意有效的自签名 Ed25519 证书。
func (b *ConfigBuilder) ServerConfig() *tls.Config {
	return b.build(types.EmptyNodeID, tls.RequireAnyClientCert)
}

// ClientConfig 构建客户端 TLS 配置，校验服务端为 expected
func (b *ConfigBuilder) ClientConfig(expected types.NodeID) *tls.Config {
	return b.build(expected, tls.NoClientCert)
}

func (b *ConfigBuilder) build(expected types.NodeID, clientAuth tls.ClientAuthType) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{*b.cert},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{ALPN},
		ClientAuth:   clientAuth,
		// 自签名证书，由 VerifyPeerCertificate 完成身份校验
		InsecureSkipVerify: true, //nolint:gosec // G402
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			_, err := VerifyPeerCertificate(rawCerts, expected)
			return err
		},
	}
}

// RemotePeer 从握手完成的连接状态提取对端 NodeID
func RemotePeer(state tls.ConnectionState) (types.NodeID, error) {
	if len(state.PeerCertificates) == 0 {
		return types.EmptyNodeID, ErrNoCertificate
	}
	id, err := NodeIDFromCertificate(state.PeerCertificates[0])
	if err != nil {
		return types.EmptyNodeID, fmt.Errorf("remote peer: %w", err)
	}
	return id, nil
}
