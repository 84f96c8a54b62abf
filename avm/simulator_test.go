package avm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/gas"
	"github.com/colorfulnotion/avm/avm/journal"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
	avmtrace "github.com/colorfulnotion/avm/avm/trace"
	"github.com/colorfulnotion/avm/common"
)

var (
	callerAddr = avmtypes.FrFromUint64(0xca11e4)
	calleeAddr = avmtypes.FrFromUint64(0xca11ee)
	senderAddr = avmtypes.FrFromUint64(0x5e4de4)
)

func frv(v uint64) Fr { return avmtypes.FrFromUint64(v) }

func ins(op program.Opcode, values ...any) program.Instruction {
	return program.MustBuild(op, values...)
}

func code(instrs ...program.Instruction) []byte {
	return program.MustEncodeAll(instrs...)
}

func newTestContext(host journal.WorldStateDB, allocated avmtypes.Gas) *Context {
	env := &avmtypes.Environment{Address: callerAddr, Sender: senderAddr, Origin: senderAddr}
	return NewContext(env, allocated, journal.New(host))
}

// runSteps executes instrs as a fresh program from PC 0, one step per
// instruction. Memory and gas carry over between calls.
func runSteps(t *testing.T, s *Simulator, c *Context, instrs ...program.Instruction) {
	t.Helper()
	c.Machine.PC = 0
	for range instrs {
		require.NoError(t, s.step(context.Background(), c, instrs))
	}
}

func reasonContains(t *testing.T, res *avmtypes.CallResult, name string) {
	t.Helper()
	require.NotNil(t, res.RevertReason)
	assert.True(t, strings.Contains(res.RevertReason.Message, name), "reason %q does not mention %s", res.RevertReason.Message, name)
}

func TestSetThenAddImmediate(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(1000, 0))

	runSteps(t, s, c,
		ins(program.SET_8, 0, 0, memory.UINT8, 5),
		ins(program.ADD_IMM_8, 0, 0, 3, 1),
	)

	assert.Equal(t, memory.NewUint8(8), c.Machine.Memory.Get(1))
	used := 1000 - c.Machine.GasLeft().L2
	assert.Equal(t, uint64(2*gas.DefaultBaseL2Gas+2*gas.MemoryWriteL2Gas+gas.MemoryReadL2Gas), used)
	assert.Equal(t, uint32(2), c.Machine.PC)
}

func TestCastTruncates(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(1000, 0))
	runSteps(t, s, c,
		ins(program.SET_16, 0, 0, memory.UINT128, 300),
		ins(program.CAST_8, 0, 0, 1, memory.UINT8),
	)
	assert.Equal(t, memory.NewUint8(44), c.Machine.Memory.Get(1))
}

func TestIndirectWriteChargesPenalty(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(1000, 0))
	runSteps(t, s, c, ins(program.SET_32, 0, 0, memory.UINT32, 10))
	before := c.Machine.GasLeft().L2
	runSteps(t, s, c, ins(program.SET_8, 1, 0, memory.UINT8, 42))

	assert.Equal(t, memory.NewUint8(42), c.Machine.Memory.Get(10))
	assert.Equal(t, memory.NewUint32(10), c.Machine.Memory.Get(0))
	want := gas.DefaultBaseL2Gas + gas.MemoryWriteL2Gas + gas.MemoryReadL2Gas + gas.IndirectReadPenaltyL2Gas
	assert.Equal(t, uint64(want), before-c.Machine.GasLeft().L2)
}

func TestIndirectOperandMustBeUint32(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(1000, 0))
	res, err := s.Execute(context.Background(), c, code(
		ins(program.SET_8, 0, 0, memory.UINT8, 10),
		ins(program.SET_8, 1, 0, memory.UINT8, 42),
	))
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	reasonContains(t, res, "TagMismatch")
}

// caller layout: M[0..1] gas, M[2] target, M[3] args size (0), M[10] ret, M[11] success
func callPrologue(l2, da uint32, target Fr) []program.Instruction {
	return []program.Instruction{
		ins(program.SET_32, 0, 0, memory.UINT32, l2),
		ins(program.SET_32, 0, 1, memory.UINT32, da),
		ins(program.SET_FF, 0, 2, memory.FIELD, target),
		ins(program.SET_32, 0, 3, memory.UINT32, 0),
	}
}

func TestRevertingCalleeLeavesCallerJournalUntouched(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, code(
		ins(program.SET_FF, 0, 2, memory.FIELD, frv(7)),
		ins(program.SET_FF, 0, 0, memory.FIELD, frv(0xdead)),
		ins(program.SSTORE, 0, 0, 2),
		ins(program.SET_32, 0, 1, memory.UINT32, 1),
		ins(program.REVERT_16, 0, 0, 1),
	))

	caller := append(callPrologue(1000, 1000, calleeAddr),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 1, 11),
		ins(program.RETURNDATASIZE, 0, 12),
		ins(program.SET_32, 0, 13, memory.UINT32, 0),
		ins(program.SET_32, 0, 14, memory.UINT32, 1),
		ins(program.RETURNDATACOPY, 0, 13, 14, 20),
		ins(program.SUCCESSCOPY, 0, 21),
		ins(program.RETURN, 0, 3, 3),
	)
	s := NewSimulator(Options{})
	c := newTestContext(host, avmtypes.NewGas(100000, 10000))
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)

	mem := c.Machine.Memory
	assert.Equal(t, memory.NewUint1(false), mem.Get(11))
	assert.Equal(t, memory.NewUint32(1), mem.Get(12))
	assert.Equal(t, memory.NewFieldFromUint64(0xdead), mem.Get(20))
	assert.Equal(t, memory.NewFieldFromUint64(0xdead), mem.Get(10))
	assert.Equal(t, memory.NewUint1(false), mem.Get(21))

	require.NotNil(t, c.Machine.CollectedRevertInfo)
	assert.Equal(t, []Fr{frv(0xdead)}, c.Machine.CollectedRevertInfo.RevertData)

	assert.Equal(t, 1, c.Journal.Depth())
	assert.Empty(t, c.Journal.Effects().StorageWrites)
	v, err := c.Journal.ReadStorage(calleeAddr, frv(7))
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestCallCapsForwardedGasAndRefunds(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, code(
		ins(program.L2GASLEFT, 0, 0),
		ins(program.SET_32, 0, 1, memory.UINT32, 1),
		ins(program.RETURN, 0, 0, 1),
	))
	caller := append(callPrologue(0xFFFFFFFF, 0xFFFFFFFF, calleeAddr),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 1, 11),
		ins(program.RETURN, 0, 3, 3),
	)
	s := NewSimulator(Options{})
	c := newTestContext(host, avmtypes.NewGas(100000, 50000))
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)

	// four prologue SETs at 110 each, then CALL's base 100: 99460 forwarded
	// and the callee's getter reports that minus its own base cost.
	ret := c.Machine.Memory.Get(10)
	assert.Equal(t, memory.FIELD, ret.Tag())
	assert.Equal(t, uint64(99450), ret.Uint64())
	assert.Equal(t, memory.NewUint1(true), c.Machine.Memory.Get(11))

	// callee used 253; CALL's memory traffic costs 240; final RETURN 20.
	assert.Equal(t, avmtypes.NewGas(98947, 50000), res.GasLeft)
}

func TestCallGasPairMustFitMemory(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 1000))
	// the gas pointer lands on the last word, so its DA half would wrap to 0
	c.Machine.Memory.Set(0xFFFFFFFF, memory.NewUint32(1000))
	caller := append(callPrologue(1000, 0, calleeAddr),
		ins(program.SET_32, 0, 50, memory.UINT32, 0xFFFFFFFF),
		ins(program.CALL, 1, 50, 2, 4, 3, 10, 1, 11),
		ins(program.RETURN, 0, 3, 3),
	)
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	reasonContains(t, res, "MemorySliceOutOfRange")
	assert.Equal(t, avmtypes.Gas{}, res.GasLeft)
}

func TestGasNeverIncreasesWithinAFrame(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, code(
		ins(program.SET_FF, 0, 0, memory.FIELD, frv(9)),
		ins(program.SET_FF, 0, 1, memory.FIELD, frv(4)),
		ins(program.ADD_16, 0, 0, 1, 2),
		ins(program.SET_32, 0, 3, memory.UINT32, 1),
		ins(program.RETURN, 0, 2, 3),
	))
	caller := append(callPrologue(5000, 100, calleeAddr),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 1, 11),
		ins(program.SET_32, 0, 12, memory.UINT32, 1),
		ins(program.RETURN, 0, 10, 12),
	)
	rec := &avmtrace.Recorder{}
	s := NewSimulator(Options{Tracer: rec})
	c := newTestContext(host, avmtypes.NewGas(100000, 1000))
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)
	assert.Equal(t, []Fr{frv(13)}, res.Output)

	last := map[int]uint64{0: 100000, 1: 5000}
	nested := 0
	for _, st := range rec.Steps {
		assert.LessOrEqual(t, st.PostL2Gas, last[st.Depth], "%s at depth %d pc %d", st.OpcodeStr, st.Depth, st.PC)
		last[st.Depth] = st.PostL2Gas
		if st.Depth == 1 {
			nested++
		}
	}
	assert.Equal(t, 5, nested)
	assert.Equal(t, res.GasLeft.L2, last[0])
}

func TestCallWithoutBytecodeConsumesForwardedGas(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 1000))
	caller := append(callPrologue(20000, 0, calleeAddr),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 1, 11),
		ins(program.RETURN, 0, 3, 3),
	)
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)
	assert.Equal(t, memory.NewUint1(false), c.Machine.Memory.Get(11))
	assert.LessOrEqual(t, res.GasLeft.L2, uint64(100000-20000))
	require.NotNil(t, c.Machine.CollectedRevertInfo)
	assert.Contains(t, c.Machine.CollectedRevertInfo.Message, "NoBytecode")
}

func TestCallDepthLimit(t *testing.T) {
	host := journal.NewMockWorldState()
	// the callee calls itself once more and returns [ret, success]
	host.SetBytecode(calleeAddr, code(
		ins(program.SET_32, 0, 0, memory.UINT32, 5000),
		ins(program.SET_32, 0, 1, memory.UINT32, 0),
		ins(program.ADDRESS, 0, 2),
		ins(program.SET_32, 0, 3, memory.UINT32, 0),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 1, 11),
		ins(program.SET_32, 0, 12, memory.UINT32, 2),
		ins(program.RETURN, 0, 10, 12),
	))
	caller := append(callPrologue(20000, 0, calleeAddr),
		ins(program.CALL, 0, 0, 2, 4, 3, 10, 2, 12),
		ins(program.SET_32, 0, 13, memory.UINT32, 3),
		ins(program.RETURN, 0, 10, 13),
	)

	s := NewSimulator(Options{MaxCallDepth: 1})
	c := newTestContext(host, avmtypes.NewGas(100000, 0))
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)
	// depth 1 ran but its own call was refused
	assert.Equal(t, []Fr{frv(0), frv(0), frv(1)}, res.Output)
}

func TestStaticCallRejectsStateChanges(t *testing.T) {
	cases := []struct {
		name  string
		instr program.Instruction
	}{
		{"SSTORE", ins(program.SSTORE, 0, 0, 0)},
		{"EMITNOTEHASH", ins(program.EMITNOTEHASH, 0, 0)},
		{"EMITNULLIFIER", ins(program.EMITNULLIFIER, 0, 0)},
		{"EMITUNENCRYPTEDLOG", ins(program.EMITUNENCRYPTEDLOG, 0, 0, 1)},
		{"SENDL2TOL1MSG", ins(program.SENDL2TOL1MSG, 0, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSimulator(Options{})
			c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 10000))
			c.Env.IsStaticCall = true
			res, err := s.Execute(context.Background(), c, code(
				ins(program.SET_FF, 0, 0, memory.FIELD, frv(1)),
				ins(program.SET_32, 0, 1, memory.UINT32, 1),
				tc.instr,
			))
			require.NoError(t, err)
			assert.True(t, res.Reverted)
			assert.True(t, res.GasLeft.IsEmpty())
			reasonContains(t, res, "StaticCallAlteration")
		})
	}
}

func TestStaticCallPropagatesToCallee(t *testing.T) {
	host := journal.NewMockWorldState()
	host.SetBytecode(calleeAddr, code(
		ins(program.SET_FF, 0, 0, memory.FIELD, frv(1)),
		ins(program.SSTORE, 0, 0, 0),
		ins(program.SET_32, 0, 1, memory.UINT32, 0),
		ins(program.RETURN, 0, 0, 1),
	))
	caller := append(callPrologue(5000, 5000, calleeAddr),
		ins(program.STATICCALL, 0, 0, 2, 4, 3, 10, 0, 11),
		ins(program.RETURN, 0, 3, 3),
	)
	s := NewSimulator(Options{})
	c := newTestContext(host, avmtypes.NewGas(100000, 10000))
	res, err := s.Execute(context.Background(), c, code(caller...))
	require.NoError(t, err)
	require.False(t, res.Reverted)
	assert.Equal(t, memory.NewUint1(false), c.Machine.Memory.Get(11))
	assert.Contains(t, c.Machine.CollectedRevertInfo.Message, "StaticCallAlteration")
}

func TestExceptionalHaltsConsumeAllGas(t *testing.T) {
	cases := []struct {
		name   string
		gas    avmtypes.Gas
		instrs []program.Instruction
		reason string
	}{
		{
			name:   "l2 exhausted by memory write",
			gas:    avmtypes.NewGas(50, 0),
			instrs: []program.Instruction{ins(program.SET_8, 0, 0, memory.UINT8, 1)},
			reason: "OutOfGas",
		},
		{
			name: "da exhausted by sstore",
			gas:  avmtypes.NewGas(10000, 100),
			instrs: []program.Instruction{
				ins(program.SET_FF, 0, 0, memory.FIELD, frv(1)),
				ins(program.SSTORE, 0, 0, 0),
			},
			reason: "OutOfGas",
		},
		{
			name: "division by zero",
			gas:  avmtypes.NewGas(10000, 0),
			instrs: []program.Instruction{
				ins(program.SET_8, 0, 0, memory.UINT8, 1),
				ins(program.SET_8, 0, 1, memory.UINT8, 0),
				ins(program.DIV_8, 0, 0, 1, 2),
			},
			reason: "DivisionByZero",
		},
		{
			name: "tag mismatch",
			gas:  avmtypes.NewGas(10000, 0),
			instrs: []program.Instruction{
				ins(program.SET_8, 0, 0, memory.UINT8, 1),
				ins(program.SET_16, 0, 1, memory.UINT16, 1),
				ins(program.ADD_8, 0, 0, 1, 2),
			},
			reason: "TagMismatch",
		},
		{
			name:   "running off the end",
			gas:    avmtypes.NewGas(10000, 0),
			instrs: []program.Instruction{ins(program.SET_8, 0, 0, memory.UINT8, 1)},
			reason: "InvalidProgramCounter",
		},
		{
			name:   "internal return without call",
			gas:    avmtypes.NewGas(10000, 0),
			instrs: []program.Instruction{ins(program.INTERNALRETURN)},
			reason: "InternalCallStackEmpty",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSimulator(Options{})
			c := newTestContext(journal.NewMockWorldState(), tc.gas)
			res, err := s.Execute(context.Background(), c, code(tc.instrs...))
			require.NoError(t, err)
			assert.True(t, res.Reverted)
			assert.True(t, res.GasLeft.IsEmpty())
			assert.Empty(t, res.Output)
			reasonContains(t, res, tc.reason)
		})
	}
}

func TestUndecodableBytecodeKeepsGas(t *testing.T) {
	s := NewSimulator(Options{})
	allocated := avmtypes.NewGas(1000, 1000)
	c := newTestContext(journal.NewMockWorldState(), allocated)
	res, err := s.Execute(context.Background(), c, []byte{0xff})
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	assert.Equal(t, allocated, res.GasLeft)
	reasonContains(t, res, "Deserialization")
}

func TestCancelledContextAbortsExecution(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(1000000, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, c, code(ins(program.JUMP_32, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, avmerrors.ErrExecutionCancelled)
}

func TestHostFailureAbortsExecution(t *testing.T) {
	host := journal.NewMockWorldState()
	s := NewSimulator(Options{})
	c := newTestContext(host, avmtypes.NewGas(10000, 0))
	host.Fail = assert.AnError
	_, err := s.Execute(context.Background(), c, code(
		ins(program.SET_FF, 0, 0, memory.FIELD, frv(1)),
		ins(program.SLOAD, 0, 0, 1),
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, avmerrors.ErrWorldState)
}

func TestInternalCallAndReturn(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 0))
	res, err := s.Execute(context.Background(), c, code(
		ins(program.SET_32, 0, 3, memory.UINT32, 0),
		ins(program.INTERNALCALL, 3),
		ins(program.RETURN, 0, 3, 3),
		ins(program.SET_8, 0, 0, memory.UINT8, 9),
		ins(program.INTERNALRETURN),
	))
	require.NoError(t, err)
	assert.False(t, res.Reverted)
	assert.Equal(t, memory.NewUint8(9), c.Machine.Memory.Get(0))
}

func TestJumpI(t *testing.T) {
	for _, tc := range []struct {
		cond uint8
		want memory.TaggedWord
	}{
		{cond: 0, want: memory.NewUint8(7)},
		{cond: 1, want: memory.NewTaggedMemory().Get(0)},
	} {
		s := NewSimulator(Options{})
		c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 0))
		res, err := s.Execute(context.Background(), c, code(
			ins(program.SET_8, 0, 0, memory.UINT8, tc.cond),
			ins(program.JUMPI_32, 0, 0, 3),
			ins(program.SET_8, 0, 1, memory.UINT8, 7),
			ins(program.SET_32, 0, 2, memory.UINT32, 0),
			ins(program.RETURN, 0, 2, 2),
		))
		require.NoError(t, err)
		assert.False(t, res.Reverted)
		got := c.Machine.Memory.Get(1)
		assert.Equal(t, tc.want.Tag(), got.Tag(), "cond=%d", tc.cond)
		assert.Equal(t, tc.want.Uint64(), got.Uint64(), "cond=%d", tc.cond)
	}
}

func TestEnvironmentGetters(t *testing.T) {
	env := &avmtypes.Environment{
		Address:          callerAddr,
		Sender:           senderAddr,
		Origin:           frv(0x0419),
		FunctionSelector: frv(0xabcd),
		TransactionFee:   frv(77),
		IsStaticCall:     true,
		Globals: avmtypes.GlobalVariables{
			ChainID:     frv(31337),
			Version:     frv(1),
			BlockNumber: 12,
			Timestamp:   1700000000,
			FeePerL2Gas: frv(3),
			FeePerDAGas: frv(4),
		},
	}
	cases := []struct {
		op   program.Opcode
		want memory.TaggedWord
	}{
		{program.ADDRESS, memory.NewField(callerAddr)},
		{program.SENDER, memory.NewField(senderAddr)},
		{program.ORIGIN, memory.NewFieldFromUint64(0x0419)},
		{program.FUNCTIONSELECTOR, memory.NewFieldFromUint64(0xabcd)},
		{program.TRANSACTIONFEE, memory.NewFieldFromUint64(77)},
		{program.CHAINID, memory.NewFieldFromUint64(31337)},
		{program.VERSION, memory.NewFieldFromUint64(1)},
		{program.BLOCKNUMBER, memory.NewUint32(12)},
		{program.TIMESTAMP, memory.NewUint64(1700000000)},
		{program.FEEPERL2GAS, memory.NewFieldFromUint64(3)},
		{program.FEEPERDAGAS, memory.NewFieldFromUint64(4)},
		{program.ISSTATICCALL, memory.NewUint1(true)},
		{program.L2GASLEFT, memory.NewUint32(1000 - gas.DefaultBaseL2Gas)},
		{program.DAGASLEFT, memory.NewUint32(500)},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			s := NewSimulator(Options{})
			c := NewContext(env, avmtypes.NewGas(1000, 500), journal.New(journal.NewMockWorldState()))
			runSteps(t, s, c, ins(tc.op, 0, 5))
			assert.Equal(t, tc.want, c.Machine.Memory.Get(5))
		})
	}
}

func TestCalldataCopyZeroPads(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 0))
	c.Env.Calldata = []Fr{frv(1), frv(2)}
	runSteps(t, s, c,
		ins(program.SET_32, 0, 0, memory.UINT32, 1),
		ins(program.SET_32, 0, 1, memory.UINT32, 3),
	)
	before := c.Machine.GasLeft().L2
	runSteps(t, s, c, ins(program.CALLDATACOPY, 0, 0, 1, 10))

	mem := c.Machine.Memory
	assert.Equal(t, memory.NewFieldFromUint64(2), mem.Get(10))
	assert.Equal(t, memory.NewFieldFromUint64(0), mem.Get(11))
	assert.Equal(t, memory.NewFieldFromUint64(0), mem.Get(12))
	want := gas.Cost(program.CALLDATACOPY, 3).L2 + 2*gas.MemoryReadL2Gas + 3*gas.MemoryWriteL2Gas
	assert.Equal(t, want, before-c.Machine.GasLeft().L2)
}

func TestKeccak(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 0))
	msg := []byte("abc")
	var instrs []program.Instruction
	for i, b := range msg {
		instrs = append(instrs, ins(program.SET_8, 0, 10+i, memory.UINT8, b))
	}
	instrs = append(instrs,
		ins(program.SET_32, 0, 1, memory.UINT32, len(msg)),
		ins(program.KECCAK, 0, 100, 10, 1),
	)
	runSteps(t, s, c, instrs...)

	want := common.Keccak256(msg).Bytes()
	for i := 0; i < 32; i++ {
		assert.Equal(t, memory.NewUint8(want[i]), c.Machine.Memory.Get(uint32(100+i)))
	}
}

func TestKeccakRequiresBytes(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 0))
	res, err := s.Execute(context.Background(), c, code(
		ins(program.SET_16, 0, 10, memory.UINT16, 300),
		ins(program.SET_32, 0, 1, memory.UINT32, 1),
		ins(program.KECCAK, 0, 100, 10, 1),
	))
	require.NoError(t, err)
	assert.True(t, res.Reverted)
	reasonContains(t, res, "TagMismatch")
}

func TestPoseidon2(t *testing.T) {
	s := NewSimulator(Options{})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 0))
	var instrs []program.Instruction
	for i := 0; i < 4; i++ {
		instrs = append(instrs, ins(program.SET_FF, 0, i, memory.FIELD, frv(uint64(i))))
	}
	instrs = append(instrs, ins(program.POSEIDON2, 0, 0, 10))
	runSteps(t, s, c, instrs...)

	want := []string{
		"0x01bd538c2ee014ed5141b29e9ae240bf8db3fe5b9a38629a9647cf8d76c01737",
		"0x239b62e7db98aa3a2a8f6a0d2fa1709e7a35959aa6c7034814d9daa90cbac662",
		"0x04cbb44c61d928ed06808456bf758cbf0c18d1e15a7b6dbc8245fa7515d5e3cb",
		"0x2e11c5cff2a22c64d01304b778d78f6998eff1ab73163a35603f54794c30847a",
	}
	for i, h := range want {
		f, err := avmtypes.FrFromString(h)
		require.NoError(t, err)
		assert.Equal(t, memory.NewField(f), c.Machine.Memory.Get(uint32(10+i)), "lane %d", i)
	}
	// input words are left untouched
	assert.Equal(t, memory.NewField(frv(3)), c.Machine.Memory.Get(3))
}

func TestDispatchCoversEveryOpcode(t *testing.T) {
	s := NewSimulator(Options{})
	for _, op := range program.AllOpcodes() {
		c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(100000, 100000))
		instr := program.InstrSpecs[op].New(op)
		mem := c.Machine.Memory.Track(op.String())
		_, err := s.dispatch(context.Background(), c, instr, mem)
		assert.NotErrorIs(t, err, avmerrors.ErrUnsupportedInstruction, op.String())
	}
}

func TestTracerRecordsSteps(t *testing.T) {
	rec := &avmtrace.Recorder{}
	s := NewSimulator(Options{Tracer: rec})
	c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 0))
	res, err := s.Execute(context.Background(), c, code(
		ins(program.SET_32, 0, 0, memory.UINT32, 0),
		ins(program.RETURN, 0, 0, 0),
	))
	require.NoError(t, err)
	require.False(t, res.Reverted)
	require.Len(t, rec.Steps, 2)
	assert.Equal(t, "SET_32", rec.Steps[0].OpcodeStr)
	assert.Equal(t, 1, rec.Steps[0].Writes)
	assert.True(t, rec.Steps[1].Halted)
	assert.Equal(t, res.GasLeft.L2, rec.Steps[1].PostL2Gas)
}

type countingObserver struct {
	instructions int
	calls        int
}

func (o *countingObserver) InstructionExecuted(program.Opcode)  { o.instructions++ }
func (o *countingObserver) CallFinished(int, bool, avmtypes.Gas) { o.calls++ }

func TestObserverAndProgramCache(t *testing.T) {
	obs := &countingObserver{}
	s := NewSimulator(Options{Observer: obs, Programs: NewProgramCache(4)})
	bytecode := code(
		ins(program.SET_32, 0, 0, memory.UINT32, 0),
		ins(program.RETURN, 0, 0, 0),
	)
	for i := 0; i < 3; i++ {
		c := newTestContext(journal.NewMockWorldState(), avmtypes.NewGas(10000, 0))
		_, err := s.Execute(context.Background(), c, bytecode)
		require.NoError(t, err)
	}
	assert.Equal(t, 6, obs.instructions)
	assert.Equal(t, 3, obs.calls)
	hits, misses := s.programs.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
}
