package avm

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

// requireNonStatic rejects state-changing instructions inside a static call.
func requireNonStatic(c *Context, op program.Opcode) error {
	if c.Env.IsStaticCall {
		return fmt.Errorf("%w: %s", avmerrors.ErrStaticCallAlteration, op)
	}
	return nil
}

func execSLoad(c *Context, i *program.SLoad, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.SlotOffset, i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.FIELD, off[0]); err != nil {
		return ops, err
	}
	slot := mem.Get(off[0]).Fr()
	value, err := c.Journal.ReadStorage(c.Env.Address, slot)
	if err != nil {
		return ops, err
	}
	mem.Set(off[1], memory.NewField(value))
	return ops, nil
}

func execSStore(c *Context, i *program.SStore, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 2, Addressing: addr}
	if err := requireNonStatic(c, i.Opcode()); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.SrcOffset, i.SlotOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTags(memory.FIELD, off[0], off[1]); err != nil {
		return ops, err
	}
	value := mem.Get(off[0]).Fr()
	slot := mem.Get(off[1]).Fr()
	c.Journal.WriteStorage(c.Env.Address, slot, value)
	return ops, nil
}

func execNoteHashExists(c *Context, i *program.NoteHashExists, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 3)
	ops := memory.MemoryOperations{Reads: 2, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.NoteHashOffset, i.LeafIndexOffset, i.ExistsOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.FIELD, off[0]); err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.UINT64, off[1]); err != nil {
		return ops, err
	}
	noteHash := mem.Get(off[0]).Fr()
	leafIndex := mem.Get(off[1]).Uint64()
	exists, err := c.Journal.CheckNoteHashExists(c.Env.Address, noteHash, leafIndex)
	if err != nil {
		return ops, err
	}
	mem.Set(off[2], memory.NewUint1(exists))
	return ops, nil
}

func execEmitNoteHash(c *Context, i *program.EmitNoteHash, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Reads: 1, Addressing: addr}
	if err := requireNonStatic(c, i.Opcode()); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.NoteHashOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.FIELD, off[0]); err != nil {
		return ops, err
	}
	c.Journal.EmitNoteHash(c.Env.Address, mem.Get(off[0]).Fr())
	return ops, nil
}

func execNullifierExists(c *Context, i *program.NullifierExists, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 3)
	ops := memory.MemoryOperations{Reads: 2, Writes: 1, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.NullifierOffset, i.AddressOffset, i.ExistsOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTags(memory.FIELD, off[0], off[1]); err != nil {
		return ops, err
	}
	nullifier := mem.Get(off[0]).Fr()
	contract := mem.Get(off[1]).Fr()
	exists, err := c.Journal.CheckNullifierExists(contract, nullifier)
	if err != nil {
		return ops, err
	}
	mem.Set(off[2], memory.NewUint1(exists))
	return ops, nil
}

func execEmitNullifier(c *Context, i *program.EmitNullifier, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Reads: 1, Addressing: addr}
	if err := requireNonStatic(c, i.Opcode()); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.NullifierOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTag(memory.FIELD, off[0]); err != nil {
		return ops, err
	}
	if err := c.Journal.EmitNullifier(c.Env.Address, mem.Get(off[0]).Fr()); err != nil {
		return ops, err
	}
	return ops, nil
}

func execEmitUnencryptedLog(c *Context, i *program.EmitUnencryptedLog, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 1, Addressing: addr}
	if err := requireNonStatic(c, i.Opcode()); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.LogOffset, i.LogSizeOffset}, mem)
	if err != nil {
		return ops, err
	}
	size, err := readSize(mem, off[1])
	if err != nil {
		return ops, err
	}
	if err := chargeDynamic(c, i.Opcode(), size); err != nil {
		return ops, err
	}
	fields, err := readFields(mem, off[0], size)
	if err != nil {
		return ops, err
	}
	ops.Reads += int(size)
	c.Journal.EmitUnencryptedLog(c.Env.Address, fields)
	return ops, nil
}

func execSendL2ToL1Message(c *Context, i *program.SendL2ToL1Message, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: 2, Addressing: addr}
	if err := requireNonStatic(c, i.Opcode()); err != nil {
		return ops, err
	}
	off, err := addr.Resolve([]uint32{i.RecipientOffset, i.ContentOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTags(memory.FIELD, off[0], off[1]); err != nil {
		return ops, err
	}
	recipient := mem.Get(off[0]).Fr()
	content := mem.Get(off[1]).Fr()
	c.Journal.SendL2ToL1Message(c.Env.Address, recipient, content)
	return ops, nil
}
