package avm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/journal"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

// sideEffectsContract stores calldata[0] at slot 1 and emits one of every
// other kind of side effect.
func sideEffectsContract() []byte {
	return code(
		ins(program.SET_32, 0, 0, memory.UINT32, 0),
		ins(program.SET_32, 0, 1, memory.UINT32, 1),
		ins(program.CALLDATACOPY, 0, 0, 1, 10),
		ins(program.SET_FF, 0, 11, memory.FIELD, frv(1)),
		ins(program.SSTORE, 0, 10, 11),
		ins(program.SLOAD, 0, 11, 12),
		ins(program.EMITNOTEHASH, 0, 10),
		ins(program.EMITNULLIFIER, 0, 10),
		ins(program.EMITUNENCRYPTEDLOG, 0, 10, 1),
		ins(program.SET_FF, 0, 13, memory.FIELD, frv(0xe7)),
		ins(program.SENDL2TOL1MSG, 0, 13, 10),
		ins(program.RETURN, 0, 12, 1),
	)
}

func newExecutor(host journal.WorldStateDB) *Executor {
	return NewExecutor(host, NewSimulator(Options{}), avmtypes.GlobalVariables{ChainID: frv(1), Version: frv(1)})
}

func TestExecuteTopLevelCallCollectsEffects(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, sideEffectsContract())
	exec := newExecutor(host)

	res, err := exec.ExecuteTopLevelCall(context.Background(), TopLevelCall{
		Address:  calleeAddr,
		Sender:   senderAddr,
		Calldata: []Fr{frv(42)},
		Gas:      avmtypes.NewGas(100000, 10000),
	})
	require.NoError(t, err)
	require.False(t, res.Reverted)
	assert.Equal(t, []Fr{frv(42)}, res.Output)
	assert.Equal(t, avmtypes.NewGas(100000, 10000).Sub(res.GasLeft), res.GasUsed)

	eff := res.Effects
	require.NotNil(t, eff)
	require.Len(t, eff.StorageWrites, 1)
	assert.Equal(t, frv(42), eff.StorageWrites[0].Value)
	require.Len(t, eff.StorageReads, 1)
	require.Len(t, eff.NoteHashes, 1)
	require.Len(t, eff.Nullifiers, 1)
	require.Len(t, eff.UnencryptedLogs, 1)
	assert.Equal(t, []Fr{frv(42)}, eff.UnencryptedLogs[0].Fields)
	require.Len(t, eff.L2ToL1Messages, 1)
	assert.Equal(t, frv(0xe7), eff.L2ToL1Messages[0].Recipient)

	counters := []uint32{
		eff.StorageWrites[0].Counter, eff.StorageReads[0].Counter, eff.NoteHashes[0].Counter,
		eff.Nullifiers[0].Counter, eff.UnencryptedLogs[0].Counter, eff.L2ToL1Messages[0].Counter,
	}
	for i := 1; i < len(counters); i++ {
		assert.Greater(t, counters[i], counters[i-1])
	}
	assert.Equal(t, uint32(len(counters)), eff.SideEffectCounter)
}

func TestExecuteTopLevelCallRevertDropsEffects(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, code(
		ins(program.SET_FF, 0, 0, memory.FIELD, frv(5)),
		ins(program.EMITNULLIFIER, 0, 0),
		ins(program.EMITNULLIFIER, 0, 0),
	))
	res, err := newExecutor(host).ExecuteTopLevelCall(context.Background(), TopLevelCall{
		Address: calleeAddr,
		Gas:     avmtypes.NewGas(10000, 10000),
	})
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	assert.Nil(t, res.Effects)
	assert.Contains(t, res.RevertReason.Message, "NullifierCollision")
	assert.Equal(t, avmtypes.NewGas(10000, 10000), res.GasUsed)
}

func TestExecuteTopLevelCallErrors(t *testing.T) {
	host := journal.NewMockWorldState()
	exec := newExecutor(host)
	_, err := exec.ExecuteTopLevelCall(context.Background(), TopLevelCall{Address: calleeAddr})
	assert.ErrorIs(t, err, avmerrors.ErrNoBytecode)

	host.SetBytecode(calleeAddr, sideEffectsContract())
	host.Fail = assert.AnError
	_, err = exec.ExecuteTopLevelCall(context.Background(), TopLevelCall{Address: calleeAddr})
	assert.ErrorIs(t, err, avmerrors.ErrWorldState)
}

func TestPoolKeepsInputOrder(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, sideEffectsContract())
	pool := NewPool(newExecutor(host), 3)

	calls := make([]TopLevelCall, 10)
	for i := range calls {
		calls[i] = TopLevelCall{
			Address:  calleeAddr,
			Sender:   senderAddr,
			Calldata: []Fr{frv(uint64(100 + i))},
			Gas:      avmtypes.NewGas(100000, 10000),
		}
	}
	results, err := pool.Run(context.Background(), calls)
	require.NoError(t, err)
	require.Len(t, results, len(calls))
	for i, res := range results {
		require.False(t, res.Reverted, "call %d", i)
		assert.Equal(t, []Fr{frv(uint64(100 + i))}, res.Output)
	}
}

func TestPoolStopsOnHostFailure(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, sideEffectsContract())
	host.Fail = assert.AnError
	pool := NewPool(newExecutor(host), 2)
	_, err := pool.Run(context.Background(), []TopLevelCall{{Address: calleeAddr}, {Address: calleeAddr}})
	assert.ErrorIs(t, err, avmerrors.ErrWorldState)
}
