package runtime

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/instruction"
	"vault/state"
)

func TestMessageDeterministic(t *testing.T) {
	kp, err := KeypairFromSeed(make([]byte, 32))
	require.NoError(t, err)

	ix := instruction.Initialize(state.Identity{1}, state.Identity{2}, kp.Identity(), state.Identity{3})
	tx1 := NewTransaction(ix)
	tx2 := NewTransaction(ix)

	assert.Equal(t, tx1.Message(), tx2.Message())
	assert.Equal(t, tx1.ID(), tx2.ID())

	// 指令内容不同 → ID 不同
	tx3 := NewTransaction(instruction.CloseAccount(
		state.Identity{1}, state.Identity{2}, kp.Identity(), state.Identity{3}))
	assert.NotEqual(t, tx1.ID(), tx3.ID())
}

func TestMessageCountsBeyondSingleByte(t *testing.T) {
	kp, err := KeypairFromSeed(make([]byte, 32))
	require.NoError(t, err)

	ix := instruction.Initialize(state.Identity{1}, state.Identity{2}, kp.Identity(), state.Identity{3})
	ixs := make([]instruction.Instruction, 300)
	for i := range ixs {
		ixs[i] = ix
	}
	tx := NewTransaction(ixs...)

	// 指令数是变长整数：超过一个字节也不截断
	count, n := binary.Uvarint(tx.Message())
	require.Greater(t, n, 0)
	assert.Equal(t, uint64(300), count)

	// 规模不同的超长交易序列必须不同
	tx2 := NewTransaction(ixs[:256]...)
	assert.NotEqual(t, tx.ID(), tx2.ID())
}

func TestSignAndVerify(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)

	tx := NewTransaction(instruction.Initialize(
		state.Identity{1}, state.Identity{2}, kp.Identity(), state.Identity{3}))
	tx.Sign(kp)

	require.Len(t, tx.Signatures, 1)
	assert.Equal(t, kp.Identity(), tx.Signatures[0].Key)
	assert.True(t, verifySignature(kp.Identity(), tx.Message(), tx.Signatures[0].Sig))

	// 篡改消息后签名失效
	msg := tx.Message()
	msg[0] ^= 0xff
	assert.False(t, verifySignature(kp.Identity(), msg, tx.Signatures[0].Sig))
}

func TestKeypairFromSeedDeterministic(t *testing.T) {
	seed := []byte("0123456789abcdef0123456789abcdef")
	kp1, err := KeypairFromSeed(seed)
	require.NoError(t, err)
	kp2, err := KeypairFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, kp1.Identity(), kp2.Identity())

	_, err = KeypairFromSeed([]byte("short"))
	assert.Error(t, err)
}

func TestDeriveWithSeed(t *testing.T) {
	base := state.Identity{7}
	owner := state.Identity{8}

	a := DeriveWithSeed(base, "seed-a", owner)
	b := DeriveWithSeed(base, "seed-b", owner)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, DeriveWithSeed(base, "seed-a", owner))

	// 属主程序不同派生结果也不同
	c := DeriveWithSeed(base, "seed-a", state.Identity{9})
	assert.NotEqual(t, a, c)
}
