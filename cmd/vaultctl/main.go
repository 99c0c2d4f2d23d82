// vaultctl 金库程序的外部调用方工具：
// 生成密钥、派生槽地址、构造指令、格式化余额
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"vault/instruction"
	"vault/program"
	"vault/runtime"
	"vault/state"
)

// baseUnitDecimals 余额基础单位的小数位（1 显示单位 = 10^9 基础单位）
const baseUnitDecimals = 9

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = cmdKeygen()
	case "derive":
		err = cmdDerive(os.Args[2:])
	case "build-initialize":
		err = cmdBuildInitialize(os.Args[2:])
	case "build-transfer":
		err = cmdBuildTransfer(os.Args[2:])
	case "build-close":
		err = cmdBuildClose(os.Args[2:])
	case "amount":
		err = cmdAmount(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vaultctl <command> [flags]

commands:
  keygen                               generate an ed25519 keypair
  derive -base <hex> -seed <string>    derive a record slot address
  build-initialize -slot <hex> -custodian <hex> -authority <hex>
  build-transfer   -slot <hex> -custodian <hex> -authority <hex> -new-authority <hex>
  build-close      -slot <hex> -custodian <hex> -authority <hex>
  amount <base-units>                  format a balance for display`)
}

func cmdKeygen() error {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return err
	}
	kp, err := runtime.KeypairFromSeed(seed)
	if err != nil {
		return err
	}
	fmt.Printf("seed:     %s\n", hex.EncodeToString(seed))
	fmt.Printf("identity: %s\n", kp.Identity())
	return nil
}

func cmdDerive(args []string) error {
	fs := flag.NewFlagSet("derive", flag.ExitOnError)
	baseHex := fs.String("base", "", "base identity (hex)")
	seed := fs.String("seed", "", "derivation seed string")
	if err := fs.Parse(args); err != nil {
		return err
	}

	base, err := parseIdentity(*baseHex)
	if err != nil {
		return fmt.Errorf("bad -base: %w", err)
	}
	slot := runtime.DeriveWithSeed(base, *seed, program.ID)
	fmt.Printf("slot: %s\n", slot)
	return nil
}

func cmdBuildInitialize(args []string) error {
	fs := flag.NewFlagSet("build-initialize", flag.ExitOnError)
	slot := fs.String("slot", "", "record slot (hex)")
	custodian := fs.String("custodian", "", "custodian identity (hex)")
	authority := fs.String("authority", "", "authority identity (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids, err := parseIdentities(*slot, *custodian, *authority)
	if err != nil {
		return err
	}
	printInstruction(instruction.Initialize(program.ID, ids[0], ids[1], ids[2]))
	return nil
}

func cmdBuildTransfer(args []string) error {
	fs := flag.NewFlagSet("build-transfer", flag.ExitOnError)
	slot := fs.String("slot", "", "record slot (hex)")
	custodian := fs.String("custodian", "", "custodian identity (hex)")
	authority := fs.String("authority", "", "current authority identity (hex)")
	newAuthority := fs.String("new-authority", "", "new authority identity (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids, err := parseIdentities(*slot, *custodian, *authority, *newAuthority)
	if err != nil {
		return err
	}
	printInstruction(instruction.TransferAuthority(program.ID, ids[0], ids[1], ids[2], ids[3]))
	return nil
}

func cmdBuildClose(args []string) error {
	fs := flag.NewFlagSet("build-close", flag.ExitOnError)
	slot := fs.String("slot", "", "record slot (hex)")
	custodian := fs.String("custodian", "", "custodian identity (hex)")
	authority := fs.String("authority", "", "current authority identity (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ids, err := parseIdentities(*slot, *custodian, *authority)
	if err != nil {
		return err
	}
	printInstruction(instruction.CloseAccount(program.ID, ids[0], ids[1], ids[2]))
	return nil
}

// cmdAmount 把基础单位余额格式化为显示单位
func cmdAmount(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("amount requires exactly one argument")
	}
	base, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", args[0], err)
	}
	if base.IsNegative() || !base.Equal(base.Truncate(0)) {
		return fmt.Errorf("amount must be a non-negative integer of base units")
	}
	fmt.Printf("%s base units = %s\n", base.String(), base.Shift(-baseUnitDecimals).String())
	return nil
}

func printInstruction(ix instruction.Instruction) {
	fmt.Printf("program: %s\n", ix.ProgramID)
	fmt.Printf("data:    %s\n", hex.EncodeToString(ix.Data))
	for i, meta := range ix.Accounts {
		flags := ""
		if meta.IsSigner {
			flags += " signer"
		}
		if meta.IsWritable {
			flags += " writable"
		}
		fmt.Printf("account[%d]: %s%s\n", i, meta.Key, flags)
	}
}

func parseIdentity(s string) (state.Identity, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return state.Identity{}, err
	}
	return state.IdentityFromBytes(raw)
}

func parseIdentities(ss ...string) ([]state.Identity, error) {
	out := make([]state.Identity, 0, len(ss))
	for _, s := range ss {
		id, err := parseIdentity(s)
		if err != nil {
			return nil, fmt.Errorf("bad identity %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}
