// Package noise 实现 Noise 协议安全传输
//
// Noise XX 握手流程：
//
//	-> e                                      (发起者发送临时公钥)
//	<- e, ee, s, es, payload                  (响应者发送临时公钥、静态公钥、payload)
//	-> s, se, payload                         (发起者发送静态公钥、payload)
//
// 静态 DH 密钥由 Ed25519 身份密钥转换得到。payload 包含：
//   - identity_key (field 1): Ed25519 公钥原始字节
//   - identity_sig (field 2): Sign("noise-g3node-static-key:" + curve25519_static_pubkey)
//
// 所有消息使用 2 字节大端长度前缀。
package noise
