// runtime/bank.go
// 本地账本（宿主模拟）：装配账户、校验签名、调用程序、all-or-nothing 提交
package runtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"vault/config"
	"vault/db"
	"vault/keys"
	"vault/logs"
	"vault/program"
	"vault/state"
)

// SystemProgram 系统程序身份（全零）：新账户的默认 owner
var SystemProgram = state.Identity{}

// ========== 错误定义 ==========

var (
	// ErrBadSignature 交易携带的某条签名校验失败
	ErrBadSignature = errors.New("invalid transaction signature")
	// ErrUnknownProgram 指令指向未注册的程序
	ErrUnknownProgram = errors.New("unknown program")
	// ErrTooManyInstructions 指令数量超出配置上限
	ErrTooManyInstructions = errors.New("too many instructions in transaction")
	// ErrEmptyTransaction 交易不含任何指令
	ErrEmptyTransaction = errors.New("empty transaction")
	// ErrAccountExists 目标账户已存在
	ErrAccountExists = errors.New("account already exists")
	// ErrDuplicateProgram 程序重复注册
	ErrDuplicateProgram = errors.New("duplicate program id")
	// ErrReadonlyAccountModified 程序改写了未标记可写的账户
	ErrReadonlyAccountModified = errors.New("read-only account modified")
	// ErrBalanceOverflow 宿主级注资导致余额溢出
	ErrBalanceOverflow = errors.New("balance overflow")
)

// ProcessFn 程序入口签名（和 program.Process 一致）
type ProcessFn func(programID state.Identity, accounts []*program.Account, input []byte) error

// Receipt 交易执行回执
type Receipt struct {
	TxID       string `json:"tx_id"`
	Status     string `json:"status"` // "SUCCEED" or "FAILED"
	Error      string `json:"error,omitempty"`
	WriteCount int    `json:"write_count"`
	// Replayed 命中重放缓存时置位，表示没有重新执行
	Replayed bool `json:"-"`
}

// Bank 单线程本地账本
// 每次 ProcessTransaction 是一个完整的事务步骤：要么全部落库要么全不落库
type Bank struct {
	mu  sync.Mutex
	mgr *db.Manager
	cfg config.BankConfig

	// 程序注册表：programID → 入口函数
	programs map[state.Identity]ProcessFn

	// 重放保护：已处理交易的回执缓存
	replay *lru.Cache
}

// NewBank 创建本地账本
func NewBank(mgr *db.Manager, cfg *config.Config) (*Bank, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New(cfg.Bank.ReplayCacheSize)
	if err != nil {
		return nil, err
	}
	return &Bank{
		mgr:      mgr,
		cfg:      cfg.Bank,
		programs: make(map[state.Identity]ProcessFn),
		replay:   cache,
	}, nil
}

// RegisterProgram 注册一个程序入口
func (b *Bank) RegisterProgram(programID state.Identity, fn ProcessFn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fn == nil {
		return errors.New("nil program entry")
	}
	if _, ok := b.programs[programID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, programID)
	}
	b.programs[programID] = fn
	return nil
}

// ========== 宿主级账户操作（外部协作方职责：租金/空间分配） ==========

// CreateAccount 分配一个新账户槽：指定 owner、数据空间、初始余额
func (b *Bank) CreateAccount(key, owner state.Identity, space int, balance uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := loadAcctState(b.mgr, key)
	if err != nil {
		return err
	}
	if st.exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, key)
	}

	st.Owner = owner
	st.Balance = balance
	st.Data = make([]byte, space)
	return b.persist(key, st)
}

// Airdrop 给账户注入余额（不存在则按系统账户创建）
func (b *Bank) Airdrop(key state.Identity, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, err := loadAcctState(b.mgr, key)
	if err != nil {
		return err
	}
	if st.Balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, key)
	}
	st.Balance += amount
	return b.persist(key, st)
}

// Balance 查询账户余额（不存在返回 0）
func (b *Bank) Balance(key state.Identity) (uint64, error) {
	st, err := loadAcctState(b.mgr, key)
	if err != nil {
		return 0, err
	}
	return st.Balance, nil
}

// AccountData 读取账户数据字节（不存在返回 nil）
func (b *Bank) AccountData(key state.Identity) ([]byte, error) {
	st, err := loadAcctState(b.mgr, key)
	if err != nil {
		return nil, err
	}
	if !st.exists {
		return nil, nil
	}
	return st.Data, nil
}

// Record 把账户数据按金库记录解码（测试与工具的便捷入口）
func (b *Bank) Record(key state.Identity) (state.VaultRecord, error) {
	data, err := b.AccountData(key)
	if err != nil {
		return state.VaultRecord{}, err
	}
	return state.DecodeRecord(data)
}

func (b *Bank) persist(key state.Identity, st *acctState) error {
	enc, err := encodeAcctState(st)
	if err != nil {
		return err
	}
	b.mgr.EnqueueSet(keys.KeyAccount(key.String()), enc)
	return b.mgr.ForceFlush()
}

// ========== 交易执行 ==========

// ProcessTransaction 执行一笔交易
// 校验签名 → 在账户工作副本上逐条执行指令 → 全部成功才提交写集
// 失败时返回 (失败回执, 原始错误)，不落任何账户写入
func (b *Bank) ProcessTransaction(tx *Transaction) (*Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(tx.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	if len(tx.Instructions) > b.cfg.MaxInstructions {
		return nil, ErrTooManyInstructions
	}

	msg := tx.Message()
	txID := tx.ID()

	// 重放保护：同一笔交易只执行一次，直接返回缓存回执
	if cached, ok := b.replay.Get(txID); ok {
		receipt := *(cached.(*Receipt))
		receipt.Replayed = true
		logs.Debug("[bank] replayed tx %s", txID)
		return &receipt, nil
	}

	// 签名校验：只信通过校验的签名，IsSigner 标志据此置位
	signed := make(map[state.Identity]bool, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		if !verifySignature(sig.Key, msg, sig.Sig) {
			logs.Warn("[bank] bad signature from %s on tx %s", sig.Key, txID)
			return b.fail(txID, ErrBadSignature)
		}
		signed[sig.Key] = true
	}

	// 账户工作副本：跨指令共享，保证同一笔交易内写后读一致
	loaded := make(map[state.Identity]*acctState)
	load := func(key state.Identity) (*acctState, error) {
		if st, ok := loaded[key]; ok {
			return st, nil
		}
		st, err := loadAcctState(b.mgr, key)
		if err != nil {
			return nil, err
		}
		loaded[key] = st
		return st, nil
	}

	for i, ix := range tx.Instructions {
		entry, ok := b.programs[ix.ProgramID]
		if !ok {
			return b.fail(txID, fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID))
		}

		// 按账户列表装配程序视角的账户视图
		// 同一 key 出现多次时各处共用同一个视图（别名），签名/可写标志取并集
		views := make(map[state.Identity]*program.Account, len(ix.Accounts))
		order := make([]state.Identity, 0, len(ix.Accounts))
		accounts := make([]*program.Account, 0, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			acct, ok := views[meta.Key]
			if !ok {
				st, err := load(meta.Key)
				if err != nil {
					return b.fail(txID, err)
				}
				dataCopy := make([]byte, len(st.Data))
				copy(dataCopy, st.Data)
				acct = &program.Account{
					Key:     meta.Key,
					Owner:   st.Owner,
					Balance: st.Balance,
					Data:    dataCopy,
				}
				views[meta.Key] = acct
				order = append(order, meta.Key)
			}
			if meta.IsSigner && signed[meta.Key] {
				acct.IsSigner = true
			}
			if meta.IsWritable {
				acct.IsWritable = true
			}
			accounts = append(accounts, acct)
		}

		if err := entry(ix.ProgramID, accounts, ix.Data); err != nil {
			logs.Warn("[bank] tx %s instruction %d failed: %v", txID, i, err)
			return b.fail(txID, err)
		}

		// 指令成功：把可写账户的变更收回工作副本
		// 只读账户被程序改动属于违规，整笔作废，绝不能把写集扔掉一半
		for _, key := range order {
			acct := views[key]
			st := loaded[key]
			if !acct.IsWritable {
				if acct.Balance != st.Balance || !bytes.Equal(acct.Data, st.Data) {
					logs.Warn("[bank] tx %s instruction %d wrote read-only account %s", txID, i, key)
					return b.fail(txID, fmt.Errorf("%w: %s", ErrReadonlyAccountModified, key))
				}
				continue
			}
			st.Balance = acct.Balance
			st.Data = acct.Data
			st.touched = true
		}
	}

	// 提交写集：先整体编码，确认无误后才入队，避免半套写入被刷盘
	// 余额清零的槽由宿主回收（删除）
	writes := make([]db.WriteTask, 0, len(loaded))
	for key, st := range loaded {
		if !st.touched {
			continue
		}
		if st.Balance == 0 {
			writes = append(writes, db.WriteTask{Key: keys.KeyAccount(key.String()), Del: true})
			continue
		}
		enc, err := encodeAcctState(st)
		if err != nil {
			return b.fail(txID, err)
		}
		writes = append(writes, db.WriteTask{Key: keys.KeyAccount(key.String()), Value: enc})
	}
	for _, w := range writes {
		if w.Del {
			b.mgr.EnqueueDel(w.Key)
			continue
		}
		b.mgr.EnqueueSet(w.Key, w.Value)
	}
	writeCount := len(writes)

	receipt := &Receipt{TxID: txID, Status: "SUCCEED", WriteCount: writeCount}
	b.recordReceipt(receipt)
	if err := b.mgr.ForceFlush(); err != nil {
		return nil, fmt.Errorf("commit tx %s: %w", txID, err)
	}
	logs.Info("[bank] tx %s committed, %d writes", txID, writeCount)
	return receipt, nil
}

// fail 生成失败回执：不提交任何账户写入，只留审计记录
// 失败的交易不进重放缓存：前置条件修好之后允许原样重交
func (b *Bank) fail(txID string, cause error) (*Receipt, error) {
	receipt := &Receipt{TxID: txID, Status: "FAILED", Error: cause.Error()}
	if code, ok := program.CustomErrorCode(cause); ok {
		receipt.Error = fmt.Sprintf("custom(%d): %s", code, cause.Error())
	}
	b.persistReceipt(receipt)
	if err := b.mgr.ForceFlush(); err != nil {
		logs.Error("[bank] flush failed receipt for %s: %v", txID, err)
	}
	return receipt, cause
}

func (b *Bank) recordReceipt(receipt *Receipt) {
	b.replay.Add(receipt.TxID, receipt)
	b.persistReceipt(receipt)
}

func (b *Bank) persistReceipt(receipt *Receipt) {
	if enc, err := json.Marshal(receipt); err == nil {
		b.mgr.EnqueueSet(keys.KeyReceipt(receipt.TxID), enc)
	}
}
