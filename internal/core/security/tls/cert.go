package tls

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// certValidity 证书有效期
const certValidity = 365 * 24 * time.Hour

// GenerateCertificate 用身份私钥生成自签名证书
func GenerateCertificate(id *identity.Identity) (*tls.Certificate, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("生成序列号失败: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"g3node"},
			CommonName:   id.ID().String(),
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, id.PublicKey(), id.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("创建证书失败: %w", err)
	}
	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("解析证书失败: %w", err)
	}

	return &tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  id.PrivateKey(),
		Leaf:        leaf,
	}, nil
}

// NodeIDFromCertificate 从证书公钥派生 NodeID
func NodeIDFromCertificate(cert *x509.Certificate) (types.NodeID, error) {
	pub, ok := cert.PublicKey.(ed25519.PublicKey)
	if !ok {
		return types.EmptyNodeID, ErrInvalidPublicKey
	}
	return identity.NodeIDFromPublicKey(pub), nil
}

// VerifyPeerCertificate 验证对端证书
//
//  1. 证书必须是有效期内的自签名 Ed25519 证书
//  2. NodeID 从证书公钥派生
//  3. expected 非空时必须一致
func VerifyPeerCertificate(rawCerts [][]byte, expected types.NodeID) (types.NodeID, error) {
	if len(rawCerts) == 0 {
		return types.EmptyNodeID, ErrNoCertificate
	}

	cert, err := x509.ParseCertificate(rawCerts[0])
	if err != nil {
		return types.EmptyNodeID, fmt.Errorf("parse certificate: %w", err)
	}

	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return types.EmptyNodeID, fmt.Errorf("tls: certificate expired or not yet valid")
	}
	if err := cert.CheckSignatureFrom(cert); err != nil {
		return types.EmptyNodeID, fmt.Errorf("tls: bad self-signature: %w", err)
	}

	actual, err := NodeIDFromCertificate(cert)
	if err != nil {
		return types.EmptyNodeID, err
	}
	if !expected.IsEmpty() && actual != expected {
		return actual, fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, expected.ShortString(), actual.ShortString())
	}
	return actual, nil
}
