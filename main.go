package main

import (
	"flag"
	"os"

	"vault/config"
	"vault/db"
	"vault/instruction"
	"vault/logs"
	"vault/program"
	"vault/runtime"
	"vault/state"
)

func main() {
	// 1. 解析命令行参数
	var (
		dataPath = flag.String("data", "./data", "database directory")
		logLevel = flag.Int("loglevel", logs.LevelInfo, "log level: 0=trace .. 5=error")
	)
	flag.Parse()

	// 2. 加载配置
	cfg := loadConfig(*dataPath)
	cfg.LogLevel = *logLevel
	logs.SetLevel(cfg.LogLevel)

	// 3. 跑一遍完整的记录生命周期演示
	if err := runDemo(cfg); err != nil {
		logs.Error("demo failed: %v", err)
		os.Exit(1)
	}
}

// loadConfig 加载配置
func loadConfig(dataPath string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DataPath = dataPath
	cfg.DB.Path = dataPath
	return cfg
}

// runDemo 本地账本上的端到端演示：
// 建槽 → Initialize → TransferAuthority → CloseAccount
func runDemo(cfg *config.Config) error {
	mgr, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	bank, err := runtime.NewBank(mgr, cfg)
	if err != nil {
		return err
	}
	if err := bank.RegisterProgram(program.ID, program.Process); err != nil {
		return err
	}

	custodian, err := runtime.NewKeypair()
	if err != nil {
		return err
	}
	authority, err := runtime.NewKeypair()
	if err != nil {
		return err
	}
	newAuthority, err := runtime.NewKeypair()
	if err != nil {
		return err
	}

	// 记录槽地址从中介方身份派生
	slot := runtime.DeriveWithSeed(custodian.Identity(), "demo-vault-record", program.ID)
	if err := bank.CreateAccount(slot, program.ID, state.RecordLen, 1000); err != nil {
		return err
	}
	logs.Info("slot created: %s", slot)

	// Initialize：中介方单签
	tx := runtime.NewTransaction(instruction.Initialize(
		program.ID, slot, custodian.Identity(), authority.Identity()))
	tx.Sign(custodian)
	receipt, err := bank.ProcessTransaction(tx)
	if err != nil {
		return err
	}
	logs.Info("initialize: %s (tx=%s)", receipt.Status, receipt.TxID)

	// TransferAuthority：中介方 + 当前权限方双签
	tx = runtime.NewTransaction(instruction.TransferAuthority(
		program.ID, slot, custodian.Identity(), authority.Identity(), newAuthority.Identity()))
	tx.Sign(custodian, authority)
	receipt, err = bank.ProcessTransaction(tx)
	if err != nil {
		return err
	}
	logs.Info("transfer authority: %s (tx=%s)", receipt.Status, receipt.TxID)

	// CloseAccount：余额整体划给新权限方，槽被回收
	tx = runtime.NewTransaction(instruction.CloseAccount(
		program.ID, slot, custodian.Identity(), newAuthority.Identity()))
	tx.Sign(custodian, newAuthority)
	receipt, err = bank.ProcessTransaction(tx)
	if err != nil {
		return err
	}
	logs.Info("close account: %s (tx=%s)", receipt.Status, receipt.TxID)

	balance, err := bank.Balance(newAuthority.Identity())
	if err != nil {
		return err
	}
	logs.Info("authority balance after close: %d", balance)
	return nil
}
