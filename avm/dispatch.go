package avm

import (
	"context"
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

// dispatch runs one instruction and returns the memory shape it declares.
// Every instruction type in the program package has a case here.
func (s *Simulator) dispatch(ctx context.Context, c *Context, instr program.Instruction, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	switch i := instr.(type) {
	// compute
	case *program.Add:
		return binary(&i.ThreeOperand, mem, memory.Add)
	case *program.Sub:
		return binary(&i.ThreeOperand, mem, memory.Sub)
	case *program.Mul:
		return binary(&i.ThreeOperand, mem, memory.Mul)
	case *program.Div:
		return binary(&i.ThreeOperand, mem, memory.Div)
	case *program.FDiv:
		return binary(&i.ThreeOperand, mem, memory.FDiv)
	case *program.Eq:
		return binary(&i.ThreeOperand, mem, memory.Eq)
	case *program.Lt:
		return binary(&i.ThreeOperand, mem, memory.Lt)
	case *program.Lte:
		return binary(&i.ThreeOperand, mem, memory.Lte)
	case *program.And:
		return binary(&i.ThreeOperand, mem, memory.And)
	case *program.Or:
		return binary(&i.ThreeOperand, mem, memory.Or)
	case *program.Xor:
		return binary(&i.ThreeOperand, mem, memory.Xor)
	case *program.Shl:
		return binary(&i.ThreeOperand, mem, memory.Shl)
	case *program.Shr:
		return binary(&i.ThreeOperand, mem, memory.Shr)
	case *program.Not:
		return execNot(i, mem)
	case *program.AddImm:
		return execAddImm(i, mem)
	case *program.Cast:
		return execCast(i, mem)

	// environment
	case *program.EnvGetter:
		return execGetter(c, i, mem)
	case *program.CalldataCopy:
		return execDataCopy(c, i.Indirect, i.CdStartOffset, i.CopySizeOffset, i.DstOffset, c.Env.Calldata, i.Opcode(), mem)
	case *program.ReturndataSize:
		return execReturndataSize(c, i, mem)
	case *program.ReturndataCopy:
		return execDataCopy(c, i.Indirect, i.RdStartOffset, i.CopySizeOffset, i.DstOffset, c.Machine.NestedReturndata, i.Opcode(), mem)
	case *program.SuccessCopy:
		return execSuccessCopy(c, i, mem)

	// control flow
	case *program.Jump:
		c.Machine.jumpTo(i.Loc)
		return memory.MemoryOperations{}, nil
	case *program.JumpI:
		return execJumpI(c, i, mem)
	case *program.InternalCall:
		return execInternalCall(c, i)
	case *program.InternalReturn:
		return execInternalReturn(c)

	// memory
	case *program.Set:
		return execSet(i, mem)
	case *program.Mov:
		return execMov(i, mem)

	// world state
	case *program.SLoad:
		return execSLoad(c, i, mem)
	case *program.SStore:
		return execSStore(c, i, mem)
	case *program.NoteHashExists:
		return execNoteHashExists(c, i, mem)
	case *program.EmitNoteHash:
		return execEmitNoteHash(c, i, mem)
	case *program.NullifierExists:
		return execNullifierExists(c, i, mem)
	case *program.EmitNullifier:
		return execEmitNullifier(c, i, mem)
	case *program.EmitUnencryptedLog:
		return execEmitUnencryptedLog(c, i, mem)
	case *program.SendL2ToL1Message:
		return execSendL2ToL1Message(c, i, mem)

	// calls and halting
	case *program.Call:
		return s.execCall(ctx, c, i, mem)
	case *program.Return:
		return execHalt(c, i.Indirect, i.ReturnOffset, i.ReturnSizeOffset, i.Opcode(), false, mem)
	case *program.Revert:
		return execHalt(c, i.Indirect, i.ReturnOffset, i.ReturnSizeOffset, i.Opcode(), true, mem)

	// gadgets
	case *program.Keccak:
		return execKeccak(c, i, mem)
	case *program.Poseidon2:
		return execPoseidon2(i, mem)
	}
	return memory.MemoryOperations{}, fmt.Errorf("%w: %T", avmerrors.ErrUnsupportedInstruction, instr)
}
