// instruction/instruction.go
// 指令编解码：操作码 + 账户引用列表构造器
package instruction

import (
	"errors"

	"vault/state"
)

// Opcode 指令操作码（单字节 tag）
type Opcode uint8

const (
	// OpInitialize 初始化金库记录
	OpInitialize Opcode = 0
	// OpTransferAuthority 变更记录的权限方
	OpTransferAuthority Opcode = 1
	// OpCloseAccount 关闭记录槽并把余额划给权限方
	OpCloseAccount Opcode = 2
)

// ErrMalformedInstruction 指令字节不合法（空、未知 tag、或带尾随字节）
var ErrMalformedInstruction = errors.New("malformed instruction encoding")

func (op Opcode) String() string {
	switch op {
	case OpInitialize:
		return "Initialize"
	case OpTransferAuthority:
		return "TransferAuthority"
	case OpCloseAccount:
		return "CloseAccount"
	}
	return "Unknown"
}

// Decode 解码指令字节
// 严格模式：必须正好一个字节且 tag 合法。当前所有指令都不带 payload，
// 合法 tag 后面的任何多余字节一律拒绝（解析面从严，不做静默忽略）
func Decode(data []byte) (Opcode, error) {
	if len(data) != 1 {
		return 0, ErrMalformedInstruction
	}
	op := Opcode(data[0])
	switch op {
	case OpInitialize, OpTransferAuthority, OpCloseAccount:
		return op, nil
	}
	return 0, ErrMalformedInstruction
}

// Encode 编码为单字节 tag
func Encode(op Opcode) []byte {
	return []byte{byte(op)}
}

// ========== 账户引用与指令构造器 ==========

// AccountMeta 指令引用的账户及其读写/签名要求
type AccountMeta struct {
	Key        state.Identity
	IsSigner   bool
	IsWritable bool
}

// Instruction 提交给宿主的完整指令：目标程序 + 账户列表 + 指令字节
type Instruction struct {
	ProgramID state.Identity
	Accounts  []AccountMeta
	Data      []byte
}

// Initialize 构造初始化指令
//
// 账户顺序：
//  0. [writable] 记录槽（必须未初始化）
//  1. [signer]   中介方（custodian）
//  2. []         权限方（authority）
func Initialize(programID, slot, custodian, authority state.Identity) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts: []AccountMeta{
			{Key: slot, IsWritable: true},
			{Key: custodian, IsSigner: true},
			{Key: authority},
		},
		Data: Encode(OpInitialize),
	}
}

// TransferAuthority 构造权限变更指令
//
// 账户顺序：
//  0. [writable] 记录槽（必须已初始化）
//  1. [signer]   中介方
//  2. [signer]   当前权限方
//  3. []         新权限方
func TransferAuthority(programID, slot, custodian, authority, newAuthority state.Identity) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts: []AccountMeta{
			{Key: slot, IsWritable: true},
			{Key: custodian, IsSigner: true},
			{Key: authority, IsSigner: true},
			{Key: newAuthority},
		},
		Data: Encode(OpTransferAuthority),
	}
}

// CloseAccount 构造关闭指令
//
// 账户顺序：
//  0. [writable]         记录槽（必须已初始化）
//  1. [signer]           中介方
//  2. [signer, writable] 当前权限方（接收记录槽的全部余额）
func CloseAccount(programID, slot, custodian, authority state.Identity) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts: []AccountMeta{
			{Key: slot, IsWritable: true},
			{Key: custodian, IsSigner: true},
			{Key: authority, IsSigner: true, IsWritable: true},
		},
		Data: Encode(OpCloseAccount),
	}
}
