// runtime/keypair.go
// 本地账本使用 ed25519 身份：公钥正好 32 字节，直接用作 Identity
package runtime

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/sha3"

	"vault/state"
)

// Keypair 签名密钥对
type Keypair struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewKeypair 随机生成密钥对
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{pub: pub, priv: priv}, nil
}

// KeypairFromSeed 由 32 字节种子确定性生成密钥对（测试和工具用）
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Keypair{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// Identity 公钥对应的 32 字节身份
func (k *Keypair) Identity() state.Identity {
	var id state.Identity
	copy(id[:], k.pub)
	return id
}

// Sign 对消息签名
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.priv, msg)
}

// verifySignature 校验某身份对消息的签名
func verifySignature(key state.Identity, msg, sig []byte) bool {
	return len(sig) == ed25519.SignatureSize &&
		ed25519.Verify(ed25519.PublicKey(key[:]), msg, sig)
}

// DeriveWithSeed 从基础身份 + 种子串 + 属主程序派生一个确定性的槽地址
// 同一组输入永远得到同一个地址，调用方不需要为记录槽单独生成密钥
func DeriveWithSeed(base state.Identity, seed string, owner state.Identity) state.Identity {
	h := sha3.New256()
	h.Write(base[:])
	h.Write([]byte(seed))
	h.Write(owner[:])

	var id state.Identity
	copy(id[:], h.Sum(nil))
	return id
}
