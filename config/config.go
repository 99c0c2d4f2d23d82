// config/config.go
package config

import (
	"fmt"
	"time"
)

// Config 主配置结构
type Config struct {
	// DataPath 数据目录
	DataPath string

	// LogLevel 日志级别（logs.LevelTrace ~ logs.LevelError）
	LogLevel int

	DB   DBConfig
	Bank BankConfig
}

// DBConfig BadgerDB 配置
type DBConfig struct {
	Path string

	// 写队列配置
	WriteQueueSize int           // 1000
	MaxBatchSize   int           // 100（累计多少条就写一次）
	FlushInterval  time.Duration // 200 * time.Millisecond（间隔多久强制写一次）

	// BadgerDB 配置
	ValueLogFileSize int64 // 64 << 20 (64MB)
}

// BankConfig 本地账本（宿主模拟）配置
type BankConfig struct {
	// ReplayCacheSize 重放保护缓存容量（按交易 ID 记回执）
	ReplayCacheSize int // 4096

	// MaxInstructions 单笔交易允许携带的指令数上限
	MaxInstructions int // 16
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		DataPath: "./data",
		LogLevel: 3, // logs.LevelInfo
		DB: DBConfig{
			Path:             "./data",
			WriteQueueSize:   1000,
			MaxBatchSize:     100,
			FlushInterval:    200 * time.Millisecond,
			ValueLogFileSize: 64 << 20,
		},
		Bank: BankConfig{
			ReplayCacheSize: 4096,
			MaxInstructions: 16,
		},
	}
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c.DB.Path == "" {
		return fmt.Errorf("db path must not be empty")
	}
	if c.DB.WriteQueueSize <= 0 {
		return fmt.Errorf("write queue size must be positive, got %d", c.DB.WriteQueueSize)
	}
	if c.DB.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got %d", c.DB.MaxBatchSize)
	}
	if c.DB.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive, got %v", c.DB.FlushInterval)
	}
	if c.Bank.ReplayCacheSize <= 0 {
		return fmt.Errorf("replay cache size must be positive, got %d", c.Bank.ReplayCacheSize)
	}
	if c.Bank.MaxInstructions <= 0 {
		return fmt.Errorf("max instructions must be positive, got %d", c.Bank.MaxInstructions)
	}
	return nil
}
