package avm

import (
	"sync"

	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/poseidon2"
	"github.com/colorfulnotion/avm/avm/program"
	"github.com/colorfulnotion/avm/common"
)

const (
	keccakOutputSize    = 32
	poseidon2StateWidth = poseidon2.Width
)

var poseidon2Perm = sync.OnceValues(poseidon2.New)

func execKeccak(c *Context, i *program.Keccak, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 3)
	ops := memory.MemoryOperations{Reads: 1, Writes: keccakOutputSize, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.DstOffset, i.MessageOffset, i.MessageSizeOffset}, mem)
	if err != nil {
		return ops, err
	}
	size, err := readSize(mem, off[2])
	if err != nil {
		return ops, err
	}
	if err := chargeDynamic(c, i.Opcode(), size); err != nil {
		return ops, err
	}
	if err := mem.CheckTagsRange(memory.UINT8, off[1], size); err != nil {
		return ops, err
	}
	words, err := mem.GetSlice(off[1], size)
	if err != nil {
		return ops, err
	}
	ops.Reads += int(size)
	msg := make([]byte, len(words))
	for k, w := range words {
		msg[k] = byte(w.Uint64())
	}
	digest := common.Keccak256(msg)
	out := make([]memory.TaggedWord, keccakOutputSize)
	for k, b := range digest.Bytes() {
		out[k] = memory.NewUint8(b)
	}
	if err := mem.SetSlice(off[0], out); err != nil {
		return ops, err
	}
	return ops, nil
}

func execPoseidon2(i *program.Poseidon2, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 2)
	ops := memory.MemoryOperations{Reads: poseidon2StateWidth, Writes: poseidon2StateWidth, Addressing: addr}
	off, err := addr.Resolve([]uint32{i.InputOffset, i.OutputOffset}, mem)
	if err != nil {
		return ops, err
	}
	if err := mem.CheckTagsRange(memory.FIELD, off[0], poseidon2StateWidth); err != nil {
		return ops, err
	}
	words, err := mem.GetSlice(off[0], poseidon2StateWidth)
	if err != nil {
		return ops, err
	}
	perm, err := poseidon2Perm()
	if err != nil {
		return ops, err
	}
	var state [poseidon2StateWidth]Fr
	for k, w := range words {
		state[k] = w.Fr()
	}
	perm.Permute(&state)
	out := make([]memory.TaggedWord, poseidon2StateWidth)
	for k := range state {
		out[k] = memory.NewField(state[k])
	}
	if err := mem.SetSlice(off[1], out); err != nil {
		return ops, err
	}
	return ops, nil
}
