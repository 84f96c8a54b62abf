package avm

import (
	"github.com/colorfulnotion/avm/avm/gas"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

// chargeDynamic bills the size-dependent part of op before any work that
// depends on size is done.
func chargeDynamic(c *Context, op program.Opcode, size uint32) error {
	if !gas.HasDynamicCost(op) || size == 0 {
		return nil
	}
	return c.Machine.ConsumeGas(gas.DynamicCost(op).Mul(uint64(size)))
}

// readSize reads a UINT32 length or offset operand.
func readSize(mem *memory.MeteredMemory, offset uint32) (uint32, error) {
	if err := mem.CheckIsValidMemoryOffsetTag(offset); err != nil {
		return 0, err
	}
	return mem.Get(offset).Uint32(), nil
}

// execDataCopy implements CALLDATACOPY and RETURNDATACOPY: size FIELD words
// from data[start:] to dst, zero padded past the end of data.
func execDataCopy(c *Context, indirect uint16, startOff, sizeOff, dstOff uint32, data []Fr, op program.Opcode, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(indirect, 3)
	ops := memory.MemoryOperations{Reads: 2, Addressing: addr}
	off, err := addr.Resolve([]uint32{startOff, sizeOff, dstOff}, mem)
	if err != nil {
		return ops, err
	}
	start, err := readSize(mem, off[0])
	if err != nil {
		return ops, err
	}
	size, err := readSize(mem, off[1])
	if err != nil {
		return ops, err
	}
	if err := chargeDynamic(c, op, size); err != nil {
		return ops, err
	}
	words := make([]memory.TaggedWord, size)
	for i := range words {
		idx := uint64(start) + uint64(i)
		if idx < uint64(len(data)) {
			words[i] = memory.NewField(data[idx])
		} else {
			words[i] = memory.NewFieldFromUint64(0)
		}
	}
	if err := mem.SetSlice(off[2], words); err != nil {
		return ops, err
	}
	ops.Writes = int(size)
	return ops, nil
}

func execReturndataSize(c *Context, i *program.ReturndataSize, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	mem.Set(off[0], memory.NewUint32(uint32(len(c.Machine.NestedReturndata))))
	return ops, nil
}

func execSuccessCopy(c *Context, i *program.SuccessCopy, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	mem.Set(off[0], memory.NewUint1(c.Machine.NestedCallSuccess))
	return ops, nil
}

// readFields reads size words starting at offset as field elements. Any
// valid tag is accepted and widened to a field element.
func readFields(mem *memory.MeteredMemory, offset, size uint32) ([]Fr, error) {
	words, err := mem.GetSlice(offset, size)
	if err != nil {
		return nil, err
	}
	out := make([]Fr, len(words))
	for i, w := range words {
		out[i] = w.Fr()
	}
	return out, nil
}

// execHalt implements RETURN and REVERT.
func execHalt(c *Context, indirect uint16, retOff, sizeOff uint32, op program.Opcode, isRevert bool, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{retOff, sizeOff}, mem)
	if err != nil {
		return ops, err
	}
	size, err := readSize(mem, off[1])
	if err != nil {
		return ops, err
	}
	if err := chargeDynamic(c, op, size); err != nil {
		return ops, err
	}
	output, err := readFields(mem, off[0], size)
	if err != nil {
		return ops, err
	}
	ops.Reads += int(size)
	if isRevert {
		c.Machine.Revert(output)
	} else {
		c.Machine.Return(output)
	}
	return ops, nil
}
