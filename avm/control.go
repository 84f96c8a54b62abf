package avm

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

func execJumpI(c *Context, i *program.JumpI, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Reads: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.CondOffset}, mem)
	if err != nil {
		return ops, err
	}
	cond := mem.Get(off[0])
	if err := concrete(cond, "jump condition"); err != nil {
		return ops, err
	}
	if !cond.IsZero() {
		c.Machine.jumpTo(i.Loc)
	}
	return ops, nil
}

func execInternalCall(c *Context, i *program.InternalCall) (memory.MemoryOperations, error) {
	ms := c.Machine
	ms.internalCallStack = append(ms.internalCallStack, ms.PC+1)
	ms.jumpTo(i.Loc)
	return memory.MemoryOperations{}, nil
}

func execInternalReturn(c *Context) (memory.MemoryOperations, error) {
	ms := c.Machine
	n := len(ms.internalCallStack)
	if n == 0 {
		return memory.MemoryOperations{}, fmt.Errorf("%w: pc %d", avmerrors.ErrInternalCallStackEmpty, ms.PC)
	}
	ret := ms.internalCallStack[n-1]
	ms.internalCallStack = ms.internalCallStack[:n-1]
	ms.jumpTo(ret)
	return memory.MemoryOperations{}, nil
}
