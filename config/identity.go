package config

import "errors"

// IdentityConfig 身份配置
//
// 节点使用 Ed25519 密钥，NodeID 为公钥的 SHA-256。
type IdentityConfig struct {
	// KeyFile 密钥文件路径
	// 为空时在内存中生成临时密钥，进程退出后身份丢失
	KeyFile string `json:"key_file" yaml:"key_file"`

	// PassphraseEnv 读取密钥文件口令的环境变量名
	// 变量为空时密钥文件以明文保存
	PassphraseEnv string `json:"passphrase_env" yaml:"passphrase_env"`

	// AutoGenerate 当密钥文件不存在时是否自动生成
	AutoGenerate bool `json:"auto_generate" yaml:"auto_generate"`
}

// DefaultIdentityConfig 返回默认身份配置
func DefaultIdentityConfig() IdentityConfig {
	return IdentityConfig{
		KeyFile:       "",
		PassphraseEnv: "G3NODE_KEY_PASSPHRASE",
		AutoGenerate:  true,
	}
}

// Validate 验证身份配置
func (c IdentityConfig) Validate() error {
	if c.KeyFile == "" && !c.AutoGenerate {
		return errors.New("identity: key_file is required when auto_generate is disabled")
	}
	return nil
}
