package instruction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vault/state"
)

var (
	testProgram   = state.Identity{1}
	testSlot      = state.Identity{2}
	testCustodian = state.Identity{3}
	testAuthority = state.Identity{4}
	testNewAuth   = state.Identity{5}
)

func TestEncodeDecodeTags(t *testing.T) {
	for _, op := range []Opcode{OpInitialize, OpTransferAuthority, OpCloseAccount} {
		enc := Encode(op)
		assert.Equal(t, []byte{byte(op)}, enc)

		got, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	for _, tag := range []byte{3, 12, 255} {
		_, err := Decode([]byte{tag})
		assert.ErrorIs(t, err, ErrMalformedInstruction, "tag=%d", tag)
	}
}

func TestDecodeEmpty(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrMalformedInstruction)

	_, err = Decode([]byte{})
	assert.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestDecodeTrailingBytes(t *testing.T) {
	// 合法 tag 带尾随字节也必须拒绝（严格解析）
	_, err := Decode([]byte{byte(OpInitialize), 0x00})
	assert.ErrorIs(t, err, ErrMalformedInstruction)

	_, err = Decode([]byte{byte(OpCloseAccount), 42, 42, 42})
	assert.ErrorIs(t, err, ErrMalformedInstruction)
}

func TestInitializeBuilder(t *testing.T) {
	ix := Initialize(testProgram, testSlot, testCustodian, testAuthority)

	assert.Equal(t, testProgram, ix.ProgramID)
	assert.Equal(t, []byte{0}, ix.Data)
	require.Len(t, ix.Accounts, 3)

	assert.Equal(t, AccountMeta{Key: testSlot, IsWritable: true}, ix.Accounts[0])
	assert.Equal(t, AccountMeta{Key: testCustodian, IsSigner: true}, ix.Accounts[1])
	assert.Equal(t, AccountMeta{Key: testAuthority}, ix.Accounts[2])
}

func TestTransferAuthorityBuilder(t *testing.T) {
	ix := TransferAuthority(testProgram, testSlot, testCustodian, testAuthority, testNewAuth)

	assert.Equal(t, []byte{1}, ix.Data)
	require.Len(t, ix.Accounts, 4)

	assert.Equal(t, AccountMeta{Key: testSlot, IsWritable: true}, ix.Accounts[0])
	assert.Equal(t, AccountMeta{Key: testCustodian, IsSigner: true}, ix.Accounts[1])
	assert.Equal(t, AccountMeta{Key: testAuthority, IsSigner: true}, ix.Accounts[2])
	assert.Equal(t, AccountMeta{Key: testNewAuth}, ix.Accounts[3])
}

func TestCloseAccountBuilder(t *testing.T) {
	ix := CloseAccount(testProgram, testSlot, testCustodian, testAuthority)

	assert.Equal(t, []byte{2}, ix.Data)
	require.Len(t, ix.Accounts, 3)

	assert.Equal(t, AccountMeta{Key: testSlot, IsWritable: true}, ix.Accounts[0])
	assert.Equal(t, AccountMeta{Key: testCustodian, IsSigner: true}, ix.Accounts[1])
	// 权限方可写：要接收记录槽退回的余额
	assert.Equal(t, AccountMeta{Key: testAuthority, IsSigner: true, IsWritable: true}, ix.Accounts[2])
}
