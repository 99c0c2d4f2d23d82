// runtime/store.go
// 账户在 db 里的持久化形态
package runtime

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"vault/db"
	"vault/keys"
	"vault/state"
)

// storedAccount 账户的落库编码（JSON）
type storedAccount struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
	Data    []byte `json:"data,omitempty"`
}

// acctState 一次交易执行期间的账户工作副本
type acctState struct {
	Owner   state.Identity
	Balance uint64
	Data    []byte
	exists  bool
	touched bool // 本次交易是否以可写方式引用过
}

// loadAcctState 从 db 读出账户；不存在则返回一个零值的系统账户
func loadAcctState(mgr *db.Manager, key state.Identity) (*acctState, error) {
	raw, err := mgr.Get(keys.KeyAccount(key.String()))
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", key, err)
	}
	if raw == nil {
		// 尚不存在：余额 0、无数据、归系统所有
		return &acctState{Owner: SystemProgram}, nil
	}

	var stored storedAccount
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	ownerBytes, err := hex.DecodeString(stored.Owner)
	if err != nil {
		return nil, fmt.Errorf("decode account owner %s: %w", key, err)
	}
	owner, err := state.IdentityFromBytes(ownerBytes)
	if err != nil {
		return nil, fmt.Errorf("decode account owner %s: %w", key, err)
	}

	return &acctState{
		Owner:   owner,
		Balance: stored.Balance,
		Data:    stored.Data,
		exists:  true,
	}, nil
}

// encodeAcctState 编码为落库字节
func encodeAcctState(st *acctState) ([]byte, error) {
	return json.Marshal(storedAccount{
		Owner:   st.Owner.String(),
		Balance: st.Balance,
		Data:    st.Data,
	})
}
