package db

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/config"
	"vault/keys"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DB.Path = t.TempDir()
	cfg.DB.ValueLogFileSize = 1 << 20

	mgr, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestSetGetRoundTrip(t *testing.T) {
	mgr := newTestManager(t)

	mgr.EnqueueSet("k1", []byte("v1"))
	require.NoError(t, mgr.ForceFlush())

	val, err := mgr.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
}

func TestGetMissingKey(t *testing.T) {
	mgr := newTestManager(t)

	val, err := mgr.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, val)
	assert.False(t, mgr.Exists("nope"))
}

func TestDelete(t *testing.T) {
	mgr := newTestManager(t)

	mgr.EnqueueSet("k1", []byte("v1"))
	require.NoError(t, mgr.ForceFlush())
	require.True(t, mgr.Exists("k1"))

	mgr.EnqueueDel("k1")
	require.NoError(t, mgr.ForceFlush())
	assert.False(t, mgr.Exists("k1"))
}

func TestWriteNotVisibleBeforeFlush(t *testing.T) {
	mgr := newTestManager(t)

	mgr.EnqueueSet("pending", []byte("x"))

	// 没有 ForceFlush 之前不保证可见（写队列是异步的）
	// 刷盘后必须可见
	require.NoError(t, mgr.ForceFlush())
	val, err := mgr.Get("pending")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), val)
}

func TestScanPrefix(t *testing.T) {
	mgr := newTestManager(t)

	for i := 0; i < 5; i++ {
		mgr.EnqueueSet(keys.KeyAccount(fmt.Sprintf("id%d", i)), []byte{byte(i)})
	}
	mgr.EnqueueSet("v1_receipt_tx1", []byte("r"))
	require.NoError(t, mgr.ForceFlush())

	got, err := mgr.Scan(keys.PrefixAccount())
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.NotContains(t, got, "v1_receipt_tx1")
}

func TestBatchOverMaxSize(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DB.Path = t.TempDir()
	cfg.DB.MaxBatchSize = 4

	mgr, err := Open(cfg)
	require.NoError(t, err)
	defer mgr.Close()

	for i := 0; i < 20; i++ {
		mgr.EnqueueSet(fmt.Sprintf("k%02d", i), []byte("v"))
	}
	require.NoError(t, mgr.ForceFlush())

	got, err := mgr.Scan("k")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}

func TestCloseFlushesPending(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DB.Path = t.TempDir()

	mgr, err := Open(cfg)
	require.NoError(t, err)

	mgr.EnqueueSet("late", []byte("v"))
	require.NoError(t, mgr.Close())

	// 重新打开，数据应已落盘
	mgr2, err := Open(cfg)
	require.NoError(t, err)
	defer mgr2.Close()

	val, err := mgr2.Get("late")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	// 关闭后的 ForceFlush 报错而不是卡死
	assert.ErrorIs(t, mgr.ForceFlush(), ErrClosed)
}
