package avm

import (
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/journal"
	"github.com/colorfulnotion/avm/avm/memory"
)

type Fr = avmtypes.Fr

// Context is everything one call frame executes against. Env is shared
// read-only; Machine and Memory belong to this frame only; Journal is shared
// by the whole call tree and forked per nested call.
type Context struct {
	Env     *avmtypes.Environment
	Machine *MachineState
	Journal *journal.Journal
	Depth   int
}

func NewContext(env *avmtypes.Environment, allocated avmtypes.Gas, j *journal.Journal) *Context {
	return &Context{Env: env, Machine: NewMachineState(allocated), Journal: j}
}

// nested builds the callee context. Memory starts empty; calldata is
// reachable through CALLDATACOPY only.
func (c *Context) nested(env *avmtypes.Environment, allocated avmtypes.Gas) *Context {
	return &Context{Env: env, Machine: NewMachineState(allocated), Journal: c.Journal, Depth: c.Depth + 1}
}

// MachineState is the mutable part of a frame.
type MachineState struct {
	PC     uint32
	Memory *memory.TaggedMemory

	gasLeft           avmtypes.Gas
	internalCallStack []uint32
	jumped            bool

	// results of the most recent nested call
	NestedReturndata    []Fr
	NestedCallSuccess   bool
	CollectedRevertInfo *avmtypes.RevertReason

	halted   bool
	reverted bool
	output   []Fr
}

func NewMachineState(allocated avmtypes.Gas) *MachineState {
	return &MachineState{Memory: memory.NewTaggedMemory(), gasLeft: allocated}
}

func (ms *MachineState) GasLeft() avmtypes.Gas {
	return ms.gasLeft
}

// ConsumeGas charges cost. On failure the frame is left with no gas at all.
func (ms *MachineState) ConsumeGas(cost avmtypes.Gas) error {
	left, err := ms.gasLeft.Consume(cost)
	if err != nil {
		ms.gasLeft = avmtypes.Gas{}
		return err
	}
	ms.gasLeft = left
	return nil
}

func (ms *MachineState) RefundGas(g avmtypes.Gas) {
	ms.gasLeft = ms.gasLeft.Add(g)
}

func (ms *MachineState) jumpTo(loc uint32) {
	ms.PC = loc
	ms.jumped = true
}

func (ms *MachineState) Halted() bool   { return ms.halted }
func (ms *MachineState) Reverted() bool { return ms.reverted }
func (ms *MachineState) Output() []Fr   { return ms.output }

func (ms *MachineState) Return(output []Fr) {
	ms.halted, ms.output = true, output
}

func (ms *MachineState) Revert(output []Fr) {
	ms.halted, ms.reverted, ms.output = true, true, output
}

// exceptionalHalt ends the frame on a VM error: no output and all remaining
// gas consumed.
func (ms *MachineState) exceptionalHalt() {
	ms.halted, ms.reverted, ms.output = true, true, nil
	ms.gasLeft = avmtypes.Gas{}
}
