// program/account.go
package program

import "vault/state"

// ========== 宿主账户视图 ==========

// Account 宿主在一次调用里提供的账户视图
// 签名校验由宿主在调用前完成，这里只信任 IsSigner 标志，不做任何密码学运算
type Account struct {
	// Key 账户的 32 字节身份
	Key state.Identity

	// Owner 拥有该账户存储的程序身份
	Owner state.Identity

	// Balance 账户余额计数器（非负，随 CloseAccount 整体搬移）
	Balance uint64

	// Data 账户字节缓冲区，调用期间由本引擎独占
	Data []byte

	// IsSigner 本次调用是否携带了该身份的有效签名（宿主校验后置位）
	IsSigner bool

	// IsWritable 本次调用是否允许写该账户
	IsWritable bool
}

// Clone 深拷贝账户视图（宿主按 all-or-nothing 提交时用副本执行）
func (a *Account) Clone() *Account {
	cp := *a
	cp.Data = make([]byte, len(a.Data))
	copy(cp.Data, a.Data)
	return &cp
}

// nextAccount 按顺序取下一个账户，不够则报 ErrNotEnoughAccounts
// 对应宿主侧“账户列表是有序的，缺一个就是调用方构造错了”
func nextAccount(accounts []*Account, idx *int) (*Account, error) {
	if *idx >= len(accounts) {
		return nil, ErrNotEnoughAccounts
	}
	a := accounts[*idx]
	*idx++
	if a == nil {
		return nil, ErrNotEnoughAccounts
	}
	return a, nil
}
