// Package identity 提供节点身份管理
//
// 身份模块负责：
//   - Ed25519 密钥对生成
//   - NodeID 派生（公钥的 SHA-256）
//   - 签名和验证
//   - 密钥文件持久化（可选 argon2id + AES-GCM 加密）
//
// 身份在进程启动时创建一次，之后只读。
package identity
