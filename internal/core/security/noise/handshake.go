package noise

import (
	"crypto/ed25519"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"filippo.io/edwards25519"
	"github.com/flynn/noise"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/g3tzkp/go-g3node/internal/core/identity"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// payloadSigPrefix 签名 payload 的前缀
const payloadSigPrefix = "noise-g3node-static-key:"

// payload 字段编号
const (
	fieldIdentityKey protowire.Number = 1
	fieldIdentitySig protowire.Number = 2
)

var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256)

// performHandshake 执行 Noise XX 握手
//
// expected 非空时校验对端 NodeID。
func performHandshake(conn net.Conn, static noise.DHKey, id *identity.Identity, expected types.NodeID, initiator bool) (*Conn, error) {
	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cipherSuite,
		Pattern:       noise.HandshakeXX,
		Initiator:     initiator,
		StaticKeypair: static,
	})
	if err != nil {
		return nil, fmt.Errorf("create handshake state: %w", err)
	}

	localPayload := encodePayload(id, static.Public)

	var (
		sendCS, recvCS *noise.CipherState
		remotePayload  []byte
	)
	if initiator {
		sendCS, recvCS, remotePayload, err = clientHandshake(conn, hs, localPayload)
	} else {
		sendCS, recvCS, remotePayload, err = serverHandshake(conn, hs, localPayload)
	}
	if err != nil {
		return nil, err
	}

	remotePub, err := verifyPayload(remotePayload, hs.PeerStatic())
	if err != nil {
		return nil, err
	}

	remote := identity.NodeIDFromPublicKey(remotePub)
	if !expected.IsEmpty() && remote != expected {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrPeerIDMismatch, expected.ShortString(), remote.ShortString())
	}

	return &Conn{
		Conn:       conn,
		sendCS:     sendCS,
		recvCS:     recvCS,
		localPeer:  id.ID(),
		remotePeer: remote,
		remotePub:  remotePub,
	}, nil
}

// encodePayload 生成握手 payload
func encodePayload(id *identity.Identity, staticPub []byte) []byte {
	sig := id.Sign(append([]byte(payloadSigPrefix), staticPub...))

	var b []byte
	b = protowire.AppendTag(b, fieldIdentityKey, protowire.BytesType)
	b = protowire.AppendBytes(b, id.PublicKey())
	b = protowire.AppendTag(b, fieldIdentitySig, protowire.BytesType)
	b = protowire.AppendBytes(b, sig)
	return b
}

// verifyPayload 解析 payload，验证签名并返回对端身份公钥
func verifyPayload(b, remoteStatic []byte) (ed25519.PublicKey, error) {
	if len(remoteStatic) != 32 {
		return nil, fmt.Errorf("%w: remote static key length %d", ErrInvalidPayload, len(remoteStatic))
	}

	var key, sig []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldIdentityKey:
			key = v
		case fieldIdentitySig:
			sig = v
		}
	}

	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: identity key length %d", ErrInvalidPayload, len(key))
	}
	if !identity.Verify(key, append([]byte(payloadSigPrefix), remoteStatic...), sig) {
		return nil, ErrInvalidSignature
	}
	return ed25519.PublicKey(key), nil
}

// ============================================================================
// 握手流程
// ============================================================================

// clientHandshake 客户端握手（发起者）
func clientHandshake(conn net.Conn, hs *noise.HandshakeState, localPayload []byte) (*noise.CipherState, *noise.CipherState, []byte, error) {
	// 轮次 1: 发送 e
	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 1: %w", err)
	}
	if err := writeFrame(conn, msg1); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 1: %w", err)
	}

	// 轮次 2: 接收 e, ee, s, es, payload
	msg2, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 2: %w", err)
	}
	remotePayload, _, _, err := hs.ReadMessage(nil, msg2)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read message 2: %w", err)
	}

	// 轮次 3: 发送 s, se, payload
	msg3, cs1, cs2, err := hs.WriteMessage(nil, localPayload)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 3: %w", err)
	}
	if err := writeFrame(conn, msg3); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 3: %w", err)
	}

	// 发起者：cs1 发送，cs2 接收
	return cs1, cs2, remotePayload, nil
}

// serverHandshake 服务器握手（响应者）
func serverHandshake(conn net.Conn, hs *noise.HandshakeState, localPayload []byte) (*noise.CipherState, *noise.CipherState, []byte, error) {
	msg1, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 1: %w", err)
	}
	if _, _, _, err = hs.ReadMessage(nil, msg1); err != nil {
		return nil, nil, nil, fmt.Errorf("read message 1: %w", err)
	}

	msg2, _, _, err := hs.WriteMessage(nil, localPayload)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("write message 2: %w", err)
	}
	if err := writeFrame(conn, msg2); err != nil {
		return nil, nil, nil, fmt.Errorf("send message 2: %w", err)
	}

	msg3, err := readFrame(conn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("receive message 3: %w", err)
	}
	remotePayload, cs1, cs2, err := hs.ReadMessage(nil, msg3)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read message 3: %w", err)
	}

	// 响应者与发起者相反
	return cs2, cs1, remotePayload, nil
}

// ============================================================================
// 密钥转换
// ============================================================================

// staticKeyFromIdentity 将 Ed25519 身份密钥转换为 Curve25519 静态密钥对
//
// 私钥：SHA-512(seed) 前 32 字节并 clamping（RFC 7748）。
// 公钥：Edwards -> Montgomery，u = (1 + y) / (1 - y)。
func staticKeyFromIdentity(id *identity.Identity) (noise.DHKey, error) {
	h := sha512.Sum512(id.PrivateKey().Seed())
	h[0] &= 248
	h[31] &= 127
	h[31] |= 64

	point, err := new(edwards25519.Point).SetBytes(id.PublicKey())
	if err != nil {
		return noise.DHKey{}, fmt.Errorf("convert identity public key: %w", err)
	}
	return noise.DHKey{Private: h[:32], Public: point.BytesMontgomery()}, nil
}

// ============================================================================
// 帧读写
// ============================================================================

// writeFrame 写入帧（2 字节长度 + 数据）
func writeFrame(w io.Writer, data []byte) error {
	buf := make([]byte, 2+len(data))
	binary.BigEndian.PutUint16(buf, uint16(len(data)))
	copy(buf[2:], data)
	_, err := w.Write(buf)
	return err
}

// readFrame 读取帧（2 字节长度 + 数据）
func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint16(lenBuf[:])
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
