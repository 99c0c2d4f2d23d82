// state/record.go
// 金库记录（VaultRecord）的定长编码与解码
package state

import (
	"bytes"
	"encoding/hex"
	"errors"
)

// IdentityLen 身份标识长度（32 字节公钥）
const IdentityLen = 32

// Identity 一方的链上身份（固定 32 字节）
type Identity [IdentityLen]byte

// ErrMalformedRecord 记录字节无法解析（长度不等于 RecordLen）
var ErrMalformedRecord = errors.New("malformed vault record encoding")

// ErrBadIdentityLen 身份字节长度不是 32
var ErrBadIdentityLen = errors.New("identity must be 32 bytes")

// IdentityFromBytes 从字节切片构造 Identity，长度必须正好 32
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != IdentityLen {
		return id, ErrBadIdentityLen
	}
	copy(id[:], b)
	return id, nil
}

// IsZero 是否为全零身份
func (id Identity) IsZero() bool {
	return id == Identity{}
}

func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// ========== VaultRecord ==========

const (
	// CurrentVersion 新建记录填写的结构版本号
	CurrentVersion uint8 = 1

	// RecordLen 编码后的记录长度：1 + 32 + 32
	RecordLen = 65
)

// VaultRecord 托管记录：记录当前权限方与固定的中介方
type VaultRecord struct {
	// Version 结构版本，0 表示未初始化
	Version uint8

	// Authority 当前控制方，变更类操作必须由它共签
	Authority Identity

	// Custodian 固定中介方，生命周期内所有操作都必须由它共签
	Custodian Identity
}

// IsInitialized 记录是否已初始化
// 只有 Version == CurrentVersion 才算已初始化；0 或任何陌生版本号都按未初始化处理
func (r VaultRecord) IsInitialized() bool {
	return r.Version == CurrentVersion
}

// DecodeRecord 解码定长记录字节
// 严格按 RecordLen 校验长度：过短或带尾随字节都返回 ErrMalformedRecord
// （记录槽由外部按 RecordLen 分配，长度不符说明槽本身就不对）
func DecodeRecord(data []byte) (VaultRecord, error) {
	var r VaultRecord
	if len(data) != RecordLen {
		return r, ErrMalformedRecord
	}
	r.Version = data[0]
	copy(r.Authority[:], data[1:1+IdentityLen])
	copy(r.Custodian[:], data[1+IdentityLen:RecordLen])
	return r, nil
}

// EncodeRecord 编码为定长字节：[version][authority][custodian]，无填充
// 与 DecodeRecord 严格互逆
func EncodeRecord(r VaultRecord) []byte {
	out := make([]byte, 0, RecordLen)
	return AppendRecord(out, r)
}

// AppendRecord 把编码结果追加到 dst，便于复用缓冲区
func AppendRecord(dst []byte, r VaultRecord) []byte {
	dst = append(dst, r.Version)
	dst = append(dst, r.Authority[:]...)
	dst = append(dst, r.Custodian[:]...)
	return dst
}

// Equal 按值比较两条记录
func (r VaultRecord) Equal(other VaultRecord) bool {
	return r.Version == other.Version &&
		bytes.Equal(r.Authority[:], other.Authority[:]) &&
		bytes.Equal(r.Custodian[:], other.Custodian[:])
}
