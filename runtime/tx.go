// runtime/tx.go
package runtime

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	"vault/instruction"
	"vault/state"
)

// Sig 一条签名：哪个身份、对交易消息的 ed25519 签名
type Sig struct {
	Key state.Identity
	Sig []byte
}

// Transaction 提交给本地账本的交易：若干条指令 + 签名集合
type Transaction struct {
	Instructions []instruction.Instruction
	Signatures   []Sig
}

// NewTransaction 构造未签名交易
func NewTransaction(ixs ...instruction.Instruction) *Transaction {
	return &Transaction{Instructions: ixs}
}

// Message 交易的确定性字节序列（签名和交易 ID 都基于它）
// 布局：uvarint 指令数；每条指令：programID(32) | uvarint 账户数 |
// 每个账户：key(32)+flags(1) | uvarint 数据长度 | 数据
// 计数用变长整数编码：任意规模都不截断，不同交易不会得到相同序列
func (tx *Transaction) Message() []byte {
	var buf bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte
	putCount := func(n int) {
		buf.Write(scratch[:binary.PutUvarint(scratch[:], uint64(n))])
	}

	putCount(len(tx.Instructions))
	for _, ix := range tx.Instructions {
		buf.Write(ix.ProgramID[:])
		putCount(len(ix.Accounts))
		for _, meta := range ix.Accounts {
			buf.Write(meta.Key[:])
			var flags byte
			if meta.IsSigner {
				flags |= 0x01
			}
			if meta.IsWritable {
				flags |= 0x02
			}
			buf.WriteByte(flags)
		}
		putCount(len(ix.Data))
		buf.Write(ix.Data)
	}
	return buf.Bytes()
}

// ID 交易标识：消息的 sha3-256 十六进制
func (tx *Transaction) ID() string {
	sum := sha3.Sum256(tx.Message())
	return hex.EncodeToString(sum[:])
}

// Sign 用给定密钥对签名（追加到签名集合）
func (tx *Transaction) Sign(signers ...*Keypair) {
	msg := tx.Message()
	for _, kp := range signers {
		tx.Signatures = append(tx.Signatures, Sig{
			Key: kp.Identity(),
			Sig: kp.Sign(msg),
		})
	}
}
