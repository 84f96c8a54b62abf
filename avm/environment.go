package avm

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/memory"
	"github.com/colorfulnotion/avm/avm/program"
)

type envGetter func(env *avmtypes.Environment) memory.TaggedWord

// envGetters read the immutable environment.
var envGetters = map[program.Opcode]envGetter{
	program.ADDRESS:          func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Address) },
	program.SENDER:           func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Sender) },
	program.ORIGIN:           func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Origin) },
	program.FUNCTIONSELECTOR: func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.FunctionSelector) },
	program.TRANSACTIONFEE:   func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.TransactionFee) },
	program.CHAINID:          func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Globals.ChainID) },
	program.VERSION:          func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Globals.Version) },
	program.BLOCKNUMBER:      func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewUint32(e.Globals.BlockNumber) },
	program.TIMESTAMP:        func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewUint64(e.Globals.Timestamp) },
	program.FEEPERL2GAS:      func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Globals.FeePerL2Gas) },
	program.FEEPERDAGAS:      func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewField(e.Globals.FeePerDAGas) },
	program.ISSTATICCALL:     func(e *avmtypes.Environment) memory.TaggedWord { return memory.NewUint1(e.IsStaticCall) },
}

type machineGetter func(ms *MachineState) memory.TaggedWord

// machineGetters report gas left after the getter's own base cost.
var machineGetters = map[program.Opcode]machineGetter{
	program.L2GASLEFT: func(ms *MachineState) memory.TaggedWord { return memory.NewUint32(uint32(min(ms.GasLeft().L2, 0xFFFFFFFF))) },
	program.DAGASLEFT: func(ms *MachineState) memory.TaggedWord { return memory.NewUint32(uint32(min(ms.GasLeft().DA, 0xFFFFFFFF))) },
}

func execGetter(c *Context, i *program.EnvGetter, mem *memory.MeteredMemory) (memory.MemoryOperations, error) {
	addr := memory.NewAddressing(i.Indirect, 1)
	ops := memory.MemoryOperations{Writes: 1, Addressing: addr}
	var w memory.TaggedWord
	if g, ok := envGetters[i.Opcode()]; ok {
		w = g(c.Env)
	} else if g, ok := machineGetters[i.Opcode()]; ok {
		w = g(c.Machine)
	} else {
		return ops, fmt.Errorf("%w: getter %s", avmerrors.ErrUnsupportedInstruction, i.Opcode())
	}
	off, err := addr.Resolve([]uint32{i.DstOffset}, mem)
	if err != nil {
		return ops, err
	}
	mem.Set(off[0], w)
	return ops, nil
}
