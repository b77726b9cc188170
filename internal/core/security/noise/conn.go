package noise

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/flynn/noise"

	"github.com/g3tzkp/go-g3node/pkg/types"
)

// maxPlaintext 单条 Noise 消息的最大明文（65535 - 16 字节 AEAD 标签）
const maxPlaintext = noise.MaxMsgLen - 16

// Conn Noise 安全连接
type Conn struct {
	net.Conn

	sendCS *noise.CipherState
	recvCS *noise.CipherState

	localPeer  types.NodeID
	remotePeer types.NodeID
	remotePub  ed25519.PublicKey

	readMu  sync.Mutex
	writeMu sync.Mutex

	readBuf []byte
	lenBuf  [2]byte
}

// Read 从连接读取数据（解密）
func (c *Conn) Read(p []byte) (int, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if len(c.readBuf) > 0 {
		n := copy(p, c.readBuf)
		c.readBuf = c.readBuf[n:]
		return n, nil
	}

	if _, err := io.ReadFull(c.Conn, c.lenBuf[:]); err != nil {
		return 0, err
	}
	encMsg := make([]byte, binary.BigEndian.Uint16(c.lenBuf[:]))
	if _, err := io.ReadFull(c.Conn, encMsg); err != nil {
		return 0, err
	}

	plaintext, err := c.recvCS.Decrypt(encMsg[:0], nil, encMsg)
	if err != nil {
		return 0, fmt.Errorf("decrypt: %w", err)
	}

	n := copy(p, plaintext)
	c.readBuf = plaintext[n:]
	return n, nil
}

// Write 向连接写入数据（加密）
//
// 超过单条 Noise 消息上限的数据拆分为多条消息。
func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	written := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > maxPlaintext {
			chunk = chunk[:maxPlaintext]
		}

		buf := make([]byte, 2, 2+len(chunk)+16)
		buf, err := c.sendCS.Encrypt(buf, nil, chunk)
		if err != nil {
			return written, fmt.Errorf("encrypt: %w", err)
		}
		binary.BigEndian.PutUint16(buf, uint16(len(buf)-2))

		if _, err := c.Conn.Write(buf); err != nil {
			return written, err
		}
		written += len(chunk)
		p = p[len(chunk):]
	}
	return written, nil
}

// LocalPeer 返回本地节点 ID
func (c *Conn) LocalPeer() types.NodeID {
	return c.localPeer
}

// RemotePeer 返回远端节点 ID
func (c *Conn) RemotePeer() types.NodeID {
	return c.remotePeer
}

// RemotePublicKey 返回远端身份公钥
func (c *Conn) RemotePublicKey() ed25519.PublicKey {
	return c.remotePub
}
