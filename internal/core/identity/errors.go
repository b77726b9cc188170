package identity

import "errors"

// 错误定义
var (
	// ErrKeyNotFound 密钥文件不存在
	ErrKeyNotFound = errors.New("identity: key file not found")

	// ErrInvalidKeyFile 密钥文件格式错误
	ErrInvalidKeyFile = errors.New("identity: invalid key file")

	// ErrInvalidKeySize 密钥长度错误
	ErrInvalidKeySize = errors.New("identity: invalid key size")

	// ErrPassphraseRequired 加密密钥文件缺少口令
	ErrPassphraseRequired = errors.New("identity: passphrase required")

	// ErrDecryptionFailed 解密失败（口令错误或文件损坏）
	ErrDecryptionFailed = errors.New("identity: decryption failed")
)
