package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/minio/sha256-simd"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// Identity 节点身份
//
// 创建后不可变，可被任意 goroutine 并发读取。
type Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	id   types.NodeID
}

// Generate 生成新的随机身份
func Generate() (*Identity, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return FromPrivateKey(priv)
}

// FromPrivateKey 从私钥创建身份
func FromPrivateKey(priv ed25519.PrivateKey) (*Identity, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKeySize
	}
	pub := priv.Public().(ed25519.PublicKey)
	return &Identity{
		priv: priv,
		pub:  pub,
		id:   NodeIDFromPublicKey(pub),
	}, nil
}

// FromSeed 从 32 字节种子创建身份（测试中用于得到确定性 ID）
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	return FromPrivateKey(ed25519.NewKeyFromSeed(seed))
}

// ID 返回节点 ID
func (i *Identity) ID() types.NodeID {
	return i.id
}

// PublicKey 返回公钥
func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.pub
}

// PrivateKey 返回私钥
func (i *Identity) PrivateKey() ed25519.PrivateKey {
	return i.priv
}

// Sign 签名数据
func (i *Identity) Sign(data []byte) []byte {
	return ed25519.Sign(i.priv, data)
}

// Verify 验证签名
func Verify(pub ed25519.PublicKey, data, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, data, sig)
}

// NodeIDFromPublicKey 从公钥派生 NodeID
//
// 使用 SHA256(PublicKeyBytes) 作为 NodeID，保证 NodeID 与公钥一一对应。
func NodeIDFromPublicKey(pub ed25519.PublicKey) types.NodeID {
	return types.NodeID(sha256.Sum256(pub))
}
