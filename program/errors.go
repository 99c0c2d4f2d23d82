// program/errors.go
package program

import "errors"

// ========== 错误定义 ==========

var (
	// ErrMalformedEncoding 指令或记录字节无法解析
	ErrMalformedEncoding = errors.New("malformed encoding")
	// ErrIncorrectOwner 记录槽不归本程序所有
	ErrIncorrectOwner = errors.New("record slot not owned by this program")
	// ErrMissingSignature 身份正确但本次调用没有携带有效签名
	ErrMissingSignature = errors.New("missing required signature")
	// ErrAlreadyInitialized 记录已初始化，禁止重复初始化
	ErrAlreadyInitialized = errors.New("record already initialized")
	// ErrNotInitialized 记录尚未初始化
	ErrNotInitialized = errors.New("record not initialized")
	// ErrNotEnoughAccounts 指令携带的账户数量不足
	ErrNotEnoughAccounts = errors.New("not enough accounts for instruction")

	// ErrIncorrectAuthority 签名方声明的身份与记录里存的不一致（领域错误，code 0）
	ErrIncorrectAuthority = errors.New("incorrect authority")
	// ErrOverflow 关闭记录时余额相加溢出（领域错误，code 1）
	ErrOverflow = errors.New("calculation overflow")
)

// 领域错误码（保留号段，区别于宿主的通用失败码）
const (
	CodeIncorrectAuthority uint32 = 0
	CodeOverflow           uint32 = 1
)

// CustomErrorCode 返回领域错误对应的自定义错误码
// 只有 ErrIncorrectAuthority / ErrOverflow 属于保留号段；
// 其余错误（签名缺失、owner 不符、生命周期、编码错误）走宿主通用码，返回 ok=false
func CustomErrorCode(err error) (code uint32, ok bool) {
	switch {
	case errors.Is(err, ErrIncorrectAuthority):
		return CodeIncorrectAuthority, true
	case errors.Is(err, ErrOverflow):
		return CodeOverflow, true
	}
	return 0, false
}
