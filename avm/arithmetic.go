package avm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

type binaryOp func(a, b memory.TaggedWord) (memory.TaggedWord, error)

// binary is M[dst] = op(M[a], M[b]). The operation enforces the tags.
func binary(i *program.ThreeOperand, mem *memory.MeteredMemory, op binaryOp) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 3)
	ops := memory.MemoryOperations{Reads: 2, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.AOffset, i.BOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	res, err := op(mem.Get(off[0]), mem.Get(off[1]))
	if err != nil {
		return ops, err
	}
	mem.Set(off[2], res)
	return ops, nil
}

func execNot(i *program.Not, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.AOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	res, err := memory.Not(mem.Get(off[0]))
	if err != nil {
		return ops, err
	}
	mem.Set(off[1], res)
	return ops, nil
}

func concrete(w memory.TaggedWord, what string) error {
	if !w.Tag().IsValid() {
		return fmt.Errorf("%w: %s is %s", avmerrors.ErrTagMismatch, what, w.Tag())
	}
	return nil
}

func execAddImm(i *program.AddImm, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.AOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	a := mem.Get(off[0])
	if err := concrete(a, "operand a"); err != nil {
		return ops, err
	}
	imm, err := memory.FromTagTruncating(a.Tag(), uint256.NewInt(uint64(i.Immediate)))
	if err != nil {
		return ops, err
	}
	res, err := memory.Add(a, imm)
	if err != nil {
		return ops, err
	}
	mem.Set(off[1], res)
	return ops, nil
}

func execCast(i *program.Cast, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}
	if err := memory.CheckIsValidTag(uint8(i.DstTag)); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.AOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	a := mem.Get(off[0])
	if err := concrete(a, "cast source"); err != nil {
		return ops, err
	}
	res, err := memory.Cast(a, i.DstTag)
	if err != nil {
		return ops, err
	}
	mem.Set(off[1], res)
	return ops, nil
}
