package db

import (
	"time"

	"github.com/dgraph-io/badger/v2"

	"vault/logs"
)

// runWriteQueue 后台批量写 goroutine
// 三种触发落库的条件：批量攒够 maxBatchSize、定时器到期、收到 ForceFlush
func (mgr *Manager) runWriteQueue() {
	defer mgr.wg.Done()

	batch := make([]WriteTask, 0, mgr.maxBatchSize)
	ticker := time.NewTicker(mgr.flushInterval)
	defer ticker.Stop()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := mgr.applyBatch(batch)
		if err != nil {
			logs.Error("[db] flush %d tasks failed: %v", len(batch), err)
		} else {
			logs.Trace("[db] flushed %d tasks", len(batch))
		}
		batch = batch[:0]
		return err
	}

	// drain 把通道里已有的请求全部取进 batch（不阻塞）
	drain := func() {
		for {
			select {
			case task := <-mgr.writeQueueChan:
				batch = append(batch, task)
			default:
				return
			}
		}
	}

	for {
		select {
		case task := <-mgr.writeQueueChan:
			batch = append(batch, task)
			if len(batch) >= mgr.maxBatchSize {
				_ = flush()
			}

		case <-ticker.C:
			_ = flush()

		case req := <-mgr.forceFlushChan:
			drain()
			req.done <- flush()

		case <-mgr.stopChan:
			drain()
			_ = flush()
			return
		}
	}
}

// applyBatch 在一个 badger 事务里应用一批写请求
func (mgr *Manager) applyBatch(batch []WriteTask) error {
	return mgr.Db.Update(func(txn *badger.Txn) error {
		for _, task := range batch {
			if task.Del {
				if err := txn.Delete([]byte(task.Key)); err != nil {
					return err
				}
				continue
			}
			if err := txn.Set([]byte(task.Key), task.Value); err != nil {
				return err
			}
		}
		return nil
	})
}
