// program/processor.go
// 托管金库记录的状态转移引擎
// 无实例状态：每个指令对应一个纯函数，只操作传入的账户列表
package program

import (
	"fmt"
	"math"

	"vault/instruction"
	"vault/logs"
	"vault/state"
)

// Process 处理一条已由宿主装配好的指令
// 宿主负责：账户加载、签名密码学校验、写权限 enforcement、all-or-nothing 提交
// 这里负责：解码指令、校验账户与签名标志、按规则改写或清空记录
func Process(programID state.Identity, accounts []*Account, input []byte) error {
	op, err := instruction.Decode(input)
	if err != nil {
		logs.Warn("[Process] reject instruction bytes: %v", err)
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	logs.Debug("[Process] dispatch %s", op)
	switch op {
	case instruction.OpInitialize:
		return processInitialize(programID, accounts)
	case instruction.OpTransferAuthority:
		return processTransferAuthority(programID, accounts)
	case instruction.OpCloseAccount:
		return processCloseAccount(programID, accounts)
	}
	// Decode 只放行三个合法 tag，到不了这里
	return fmt.Errorf("%w: unknown opcode %d", ErrMalformedEncoding, op)
}

// validateSigner 两个变更类指令共用的签名校验
// 先比身份再看签名标志，顺序不能换：调用方要能区分
// “身份不对”（IncorrectAuthority，领域错误）和“身份对但没签名”（MissingSignature）
func validateSigner(acct *Account, want state.Identity) error {
	if acct.Key != want {
		logs.Warn("[validateSigner] key mismatch: got %s want %s", acct.Key, want)
		return ErrIncorrectAuthority
	}
	if !acct.IsSigner {
		logs.Warn("[validateSigner] missing signature for %s", acct.Key)
		return ErrMissingSignature
	}
	return nil
}

// checkOwner 记录槽必须归本程序所有，否则任何改写都被拒绝
func checkOwner(slot *Account, programID state.Identity) error {
	if slot.Owner != programID {
		logs.Warn("[checkOwner] slot %s owned by %s, not this program", slot.Key, slot.Owner)
		return ErrIncorrectOwner
	}
	return nil
}

// loadRecord 解码记录槽当前字节
// 全零/垃圾初始态也能解出来（长度对即可），交给 IsInitialized 判定生命周期
func loadRecord(slot *Account) (state.VaultRecord, error) {
	record, err := state.DecodeRecord(slot.Data)
	if err != nil {
		return record, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return record, nil
}

// storeRecord 把记录整体写回槽的字节缓冲区（定长覆盖）
func storeRecord(slot *Account, record state.VaultRecord) {
	copy(slot.Data, state.EncodeRecord(record))
}

// processInitialize 初始化金库记录
//
// 账户：[记录槽(writable), 中介方(signer), 权限方]
func processInitialize(programID state.Identity, accounts []*Account) error {
	idx := 0
	slot, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	custodian, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	authority, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}

	if err := checkOwner(slot, programID); err != nil {
		return err
	}

	// 初始化只要求中介方签名；此时记录里还没有身份可比对
	if !custodian.IsSigner {
		logs.Warn("[Initialize] missing custodian signature")
		return ErrMissingSignature
	}

	record, err := loadRecord(slot)
	if err != nil {
		return err
	}
	if record.IsInitialized() {
		logs.Warn("[Initialize] slot %s already initialized", slot.Key)
		return ErrAlreadyInitialized
	}

	record.Custodian = custodian.Key
	record.Authority = authority.Key
	record.Version = state.CurrentVersion

	storeRecord(slot, record)
	logs.Info("[Initialize] slot=%s custodian=%s authority=%s", slot.Key, custodian.Key, authority.Key)
	return nil
}

// processTransferAuthority 变更记录的权限方
//
// 账户：[记录槽(writable), 中介方(signer), 当前权限方(signer), 新权限方]
func processTransferAuthority(programID state.Identity, accounts []*Account) error {
	idx := 0
	slot, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	custodian, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	authority, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	newAuthority, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}

	if err := checkOwner(slot, programID); err != nil {
		return err
	}

	record, err := loadRecord(slot)
	if err != nil {
		return err
	}
	if !record.IsInitialized() {
		logs.Warn("[TransferAuthority] slot %s not initialized", slot.Key)
		return ErrNotInitialized
	}

	// 双签校验：中介方在前，权限方在后，错误码顺序对外稳定
	if err := validateSigner(custodian, record.Custodian); err != nil {
		return err
	}
	if err := validateSigner(authority, record.Authority); err != nil {
		return err
	}

	record.Authority = newAuthority.Key

	storeRecord(slot, record)
	logs.Info("[TransferAuthority] slot=%s new_authority=%s", slot.Key, newAuthority.Key)
	return nil
}

// processCloseAccount 关闭记录槽：余额整体划给当前权限方，槽余额清零
// 宿主会回收零余额的槽；记录字节原样写回（字段没变）
//
// 账户：[记录槽(writable), 中介方(signer), 当前权限方(signer, writable)]
func processCloseAccount(programID state.Identity, accounts []*Account) error {
	idx := 0
	slot, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	custodian, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}
	authority, err := nextAccount(accounts, &idx)
	if err != nil {
		return err
	}

	if err := checkOwner(slot, programID); err != nil {
		return err
	}

	record, err := loadRecord(slot)
	if err != nil {
		return err
	}
	if !record.IsInitialized() {
		logs.Warn("[CloseAccount] slot %s not initialized", slot.Key)
		return ErrNotInitialized
	}

	if err := validateSigner(custodian, record.Custodian); err != nil {
		return err
	}
	if err := validateSigner(authority, record.Authority); err != nil {
		return err
	}

	// 余额搬移必须原子：先算加法，确认不溢出之后才动两边的余额
	drained, err := safeAddBalance(authority.Balance, slot.Balance)
	if err != nil {
		logs.Warn("[CloseAccount] balance overflow: %d + %d", authority.Balance, slot.Balance)
		return err
	}
	// 先入账再清槽：槽和权限方是同一账户（自关闭）时净效果是清零而不是翻倍
	moved := slot.Balance
	authority.Balance = drained
	slot.Balance = 0

	storeRecord(slot, record)
	logs.Info("[CloseAccount] slot=%s moved=%d to authority=%s", slot.Key, moved, authority.Key)
	return nil
}

// safeAddBalance 带溢出检查的余额加法
func safeAddBalance(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}
