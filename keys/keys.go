// keys/keys.go
// 统一的 Key 定义包，供 runtime 和 db 模块共同使用
package keys

import "strings"

// ===================== 版本控制 =====================
// 设置全局 Key 版本前缀（例如 "v1" → 产出 "v1_<key>"）。
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（保持下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// StripVersion 把带版本的键去掉版本前缀，便于双读回退
func StripVersion(prefixed string) string {
	if KeyVersion == "" {
		return prefixed
	}
	return strings.TrimPrefix(prefixed, KeyVersion+"_")
}

// ===================== 账户相关 =====================

// KeyAccount 账户状态（余额、owner、记录槽字节）
// 例：v1_account_<identity hex>
func KeyAccount(identity string) string {
	return withVer("account_" + identity)
}

// PrefixAccount 账户键前缀，用于全量扫描
func PrefixAccount() string {
	return withVer("account_")
}

// ===================== 交易相关 =====================

// KeyReceipt 交易执行回执
// 例：v1_receipt_<txID>
func KeyReceipt(txID string) string {
	return withVer("receipt_" + txID)
}
