package avm

import (
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

func execSet(i *program.Set, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Writes: 1, Addressing: addr}
	if err := memory.CheckIsValidTag(uint8(i.InTag)); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	w, err := memory.FromTagTruncating(i.InTag, &i.Value)
	if err != nil {
		return ops, err
	}
	mem.Set(off[0], w)
	return ops, nil
}

// execMov copies the word with its tag, INVALID included.
func execMov(i *program.Mov, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.SrcOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	mem.Set(off[1], mem.Get(off[0]))
	return ops, nil
}
