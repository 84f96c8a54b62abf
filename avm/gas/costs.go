package gas

import (
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/program"
)

// Memory traffic is billed to L2 only, after the instruction ran.
const (
	MemoryReadL2Gas          = 10
	MemoryWriteL2Gas         = 100
	IndirectReadPenaltyL2Gas = 10
)

// DefaultBaseL2Gas is the base cost of every opcode without an override.
const DefaultBaseL2Gas = 10

var baseCosts = map[program.Opcode]avmtypes.Gas{
	program.FDIV_8:             {L2: 30},
	program.FDIV_16:            {L2: 30},
	program.SLOAD:              {L2: 80},
	program.SSTORE:             {L2: 120, DA: 512},
	program.NOTEHASHEXISTS:     {L2: 60},
	program.EMITNOTEHASH:       {L2: 80, DA: 512},
	program.NULLIFIEREXISTS:    {L2: 60},
	program.EMITNULLIFIER:      {L2: 80, DA: 512},
	program.EMITUNENCRYPTEDLOG: {L2: 50},
	program.SENDL2TOL1MSG:      {L2: 80, DA: 512},
	program.CALL:               {L2: 100},
	program.STATICCALL:         {L2: 100},
	program.KECCAK:             {L2: 100},
	program.POSEIDON2:          {L2: 80},
}

// dynamicCosts are charged once per unit of the instruction's size operand:
// words copied, log fields, call arguments or message bytes.
var dynamicCosts = map[program.Opcode]avmtypes.Gas{
	program.CALLDATACOPY:       {L2: 3},
	program.RETURNDATACOPY:     {L2: 3},
	program.RETURN:             {L2: 3},
	program.REVERT_8:           {L2: 3},
	program.REVERT_16:          {L2: 3},
	program.EMITUNENCRYPTEDLOG: {L2: 10, DA: 32},
	program.CALL:               {L2: 4},
	program.STATICCALL:         {L2: 4},
	program.KECCAK:             {L2: 6},
}

func BaseCost(op program.Opcode) avmtypes.Gas {
	if g, ok := baseCosts[op]; ok {
		return g
	}
	return avmtypes.Gas{L2: DefaultBaseL2Gas}
}

func DynamicCost(op program.Opcode) avmtypes.Gas {
	return dynamicCosts[op]
}

func HasDynamicCost(op program.Opcode) bool {
	_, ok := dynamicCosts[op]
	return ok
}

// Cost is base + dynamic*size.
func Cost(op program.Opcode, size uint32) avmtypes.Gas {
	return BaseCost(op).Add(DynamicCost(op).Mul(uint64(size)))
}

// MemoryCost is the surcharge for one instruction's memory traffic. reads
// already include the reads made to resolve indirect operands.
func MemoryCost(reads, writes, indirect int) avmtypes.Gas {
	return avmtypes.Gas{L2: uint64(reads)*MemoryReadL2Gas + uint64(writes)*MemoryWriteL2Gas + uint64(indirect)*IndirectReadPenaltyL2Gas}
}
