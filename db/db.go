package db

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v2"

	"vault/config"
	"vault/logs"
)

// ErrClosed 管理器已关闭
var ErrClosed = errors.New("db manager closed")

// WriteTask 一条待落库的写请求
type WriteTask struct {
	Key   string
	Value []byte
	Del   bool
}

type flushRequest struct {
	done chan error
}

// Manager 封装 BadgerDB 的管理器
// 写入先进队列，由后台 goroutine 批量落库；ForceFlush 是显式提交点
type Manager struct {
	Db *badger.DB
	mu sync.RWMutex

	// 队列通道，批量写的 goroutine 用它来取写请求
	writeQueueChan chan WriteTask
	// 强制刷盘通道
	forceFlushChan chan flushRequest
	// 用于通知写队列 goroutine 停止
	stopChan chan struct{}
	wg       sync.WaitGroup

	// 控制“写多少/多长时间”就落库
	maxBatchSize  int
	flushInterval time.Duration

	closed bool
}

// Open 打开数据库并启动写队列
func Open(cfg *config.Config) (*Manager, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(cfg.DB.Path).
		WithValueLogFileSize(cfg.DB.ValueLogFileSize).
		WithLogger(nil)

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		Db:             bdb,
		writeQueueChan: make(chan WriteTask, cfg.DB.WriteQueueSize),
		forceFlushChan: make(chan flushRequest, 1),
		stopChan:       make(chan struct{}),
		maxBatchSize:   cfg.DB.MaxBatchSize,
		flushInterval:  cfg.DB.FlushInterval,
	}

	mgr.wg.Add(1)
	go mgr.runWriteQueue()

	logs.Info("[db] opened badger at %s", cfg.DB.Path)
	return mgr, nil
}

// EnqueueSet 入队一条写请求（不立刻落库）
func (mgr *Manager) EnqueueSet(key string, value []byte) {
	val := make([]byte, len(value))
	copy(val, value)
	mgr.writeQueueChan <- WriteTask{Key: key, Value: val}
}

// EnqueueDel 入队一条删除请求
func (mgr *Manager) EnqueueDel(key string) {
	mgr.writeQueueChan <- WriteTask{Key: key, Del: true}
}

// ForceFlush 把队列里累计的写请求立刻落库，作为提交点
func (mgr *Manager) ForceFlush() error {
	mgr.mu.RLock()
	if mgr.closed {
		mgr.mu.RUnlock()
		return ErrClosed
	}
	mgr.mu.RUnlock()

	req := flushRequest{done: make(chan error, 1)}
	mgr.forceFlushChan <- req
	return <-req.done
}

// Get 读取一个 key；不存在返回 (nil, nil)
func (mgr *Manager) Get(key string) ([]byte, error) {
	var val []byte
	err := mgr.Db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Exists 判断 key 是否存在
func (mgr *Manager) Exists(key string) bool {
	err := mgr.Db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	return err == nil
}

// Scan 前缀扫描，返回所有以 prefix 开头的键值对
func (mgr *Manager) Scan(prefix string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	err := mgr.Db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.Key())] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Close 停止写队列（先把剩余请求刷完）并关闭数据库
func (mgr *Manager) Close() error {
	mgr.mu.Lock()
	if mgr.closed {
		mgr.mu.Unlock()
		return nil
	}
	mgr.closed = true
	mgr.mu.Unlock()

	close(mgr.stopChan)
	mgr.wg.Wait()
	return mgr.Db.Close()
}
