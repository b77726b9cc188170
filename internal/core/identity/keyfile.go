package identity

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"

	"github.com/g3tzkp/go-g3node/pkg/lib/log"
)

var logger = log.Logger("core/identity")

// ============================================================================
//                              密钥文件格式
// ============================================================================

// 密钥文件格式：
//
//	Magic:     "G3NODE-KEY" (10 bytes)
//	Version:   uint8
//	Encrypted: uint8 (0=否, 1=是)
//	Data:      32 字节 Ed25519 种子，或 salt(16) || nonce(12) || AES-GCM 密文

const (
	keyFileMagic   = "G3NODE-KEY"
	keyFileVersion = 1

	saltSize  = 16
	nonceSize = 12

	// Argon2id 参数
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
)

// EncodeKeyFile 编码密钥文件内容
//
// passphrase 为空时明文保存种子。
func EncodeKeyFile(id *Identity, passphrase []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(keyFileMagic)
	buf.WriteByte(keyFileVersion)

	seed := id.priv.Seed()
	if len(passphrase) == 0 {
		buf.WriteByte(0)
		buf.Write(seed)
		return buf.Bytes(), nil
	}

	sealed, err := seal(seed, passphrase)
	if err != nil {
		return nil, err
	}
	buf.WriteByte(1)
	buf.Write(sealed)
	return buf.Bytes(), nil
}

// DecodeKeyFile 解码密钥文件内容
func DecodeKeyFile(data, passphrase []byte) (*Identity, error) {
	header := len(keyFileMagic) + 2
	if len(data) < header || string(data[:len(keyFileMagic)]) != keyFileMagic {
		return nil, ErrInvalidKeyFile
	}
	if v := data[len(keyFileMagic)]; v != keyFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidKeyFile, v)
	}

	encrypted := data[len(keyFileMagic)+1] == 1
	seed := data[header:]
	if encrypted {
		if len(passphrase) == 0 {
			return nil, ErrPassphraseRequired
		}
		var err error
		if seed, err = open(seed, passphrase); err != nil {
			return nil, err
		}
	}

	if len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidKeySize
	}
	return FromSeed(seed)
}

// Save 保存身份到密钥文件
//
// 使用原子写操作（临时文件 + rename），文件权限 0600。
func Save(id *Identity, path string, passphrase []byte) error {
	data, err := EncodeKeyFile(id, passphrase)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	return atomicWriteFile(path, data, 0o600)
}

// Load 从密钥文件加载身份
func Load(path string, passphrase []byte) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return DecodeKeyFile(data, passphrase)
}

// LoadOrGenerate 加载或创建身份
//
// 优先级：
//   - path 为空：生成临时身份
//   - 文件存在：加载（失败直接返回错误，不覆盖已有文件）
//   - 文件不存在且 autoGenerate：生成并保存
func LoadOrGenerate(path string, passphrase []byte, autoGenerate bool) (*Identity, error) {
	if path == "" {
		if !autoGenerate {
			return nil, ErrKeyNotFound
		}
		return Generate()
	}

	id, err := Load(path, passphrase)
	if err == nil {
		logger.Debug("加载身份", "nodeID", id.ID().ShortString(), "path", path)
		return id, nil
	}
	if !errors.Is(err, ErrKeyNotFound) || !autoGenerate {
		return nil, fmt.Errorf("load identity %s: %w", path, err)
	}

	if id, err = Generate(); err != nil {
		return nil, err
	}
	if err := Save(id, path, passphrase); err != nil {
		return nil, fmt.Errorf("save identity %s: %w", path, err)
	}
	logger.Info("生成新身份", "nodeID", id.ID().ShortString(), "path", path, "encrypted", len(passphrase) > 0)
	return id, nil
}

// ============================================================================
//                              加密辅助函数
// ============================================================================

func newGCM(passphrase, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal 输出 salt || nonce || ciphertext
func seal(plaintext, passphrase []byte) ([]byte, error) {
	out := make([]byte, saltSize+nonceSize)
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		return nil, err
	}

	gcm, err := newGCM(passphrase, out[:saltSize])
	if err != nil {
		return nil, err
	}
	return gcm.Seal(out, out[saltSize:], plaintext, nil), nil
}

func open(data, passphrase []byte) ([]byte, error) {
	if len(data) < saltSize+nonceSize {
		return nil, ErrDecryptionFailed
	}
	gcm, err := newGCM(passphrase, data[:saltSize])
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, data[saltSize:saltSize+nonceSize], data[saltSize+nonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// atomicWriteFile 原子写文件
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("同步临时文件失败: %w", err)
	}
	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("设置文件权限失败: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("重命名文件失败: %w", err)
	}
	success = true
	return nil
}
