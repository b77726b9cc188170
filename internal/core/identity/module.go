package identity

import (
	"crypto/ed25519"
	"os"

	"go.uber.org/fx"

	"github.com/g3tzkp/go-g3node/config"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *config.Config

	// Key 直接注入的私钥（WithIdentity 场景），优先于密钥文件
	Key ed25519.PrivateKey `name:"identity_key" optional:"true"`
}

// ProvideIdentity 提供节点身份
//
// 优先级：注入的私钥 > 密钥文件 > 自动生成。
func ProvideIdentity(in ModuleInput) (*Identity, error) {
	if in.Key != nil {
		return FromPrivateKey(in.Key)
	}

	cfg := in.Config.Identity
	var passphrase []byte
	if cfg.PassphraseEnv != "" {
		passphrase = []byte(os.Getenv(cfg.PassphraseEnv))
	}
	return LoadOrGenerate(cfg.KeyFile, passphrase, cfg.AutoGenerate)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("identity",
		fx.Provide(ProvideIdentity),
	)
}
