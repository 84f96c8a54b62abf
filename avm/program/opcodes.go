package program

import "fmt"

// Opcode is the first byte of every encoded instruction. Values are stable:
// deployed bytecode depends on them.
type Opcode uint8

// Compute. Each operation has an 8-bit and a 16-bit offset variant.
const (
	ADD_8   Opcode = 0
	ADD_16  Opcode = 1
	SUB_8   Opcode = 2
	SUB_16  Opcode = 3
	MUL_8   Opcode = 4
	MUL_16  Opcode = 5
	DIV_8   Opcode = 6
	DIV_16  Opcode = 7
	FDIV_8  Opcode = 8
	FDIV_16 Opcode = 9
	EQ_8    Opcode = 10 // 0x0a
	EQ_16   Opcode = 11
	LT_8    Opcode = 12
	LT_16   Opcode = 13
	LTE_8   Opcode = 14
	LTE_16  Opcode = 15
	AND_8   Opcode = 16 // 0x10
	AND_16  Opcode = 17
	OR_8    Opcode = 18
	OR_16   Opcode = 19
	XOR_8   Opcode = 20
	XOR_16  Opcode = 21
	NOT_8   Opcode = 22
	NOT_16  Opcode = 23
	SHL_8   Opcode = 24
	SHL_16  Opcode = 25
	SHR_8   Opcode = 26
	SHR_16  Opcode = 27
)

// Compute with an immediate operand, and the one tag-changing instruction.
const (
	ADD_IMM_8  Opcode = 28
	ADD_IMM_16 Opcode = 29
	CAST_8     Opcode = 30
	CAST_16    Opcode = 31
)

// Execution environment getters.
const (
	ADDRESS          Opcode = 32 // 0x20
	SENDER           Opcode = 33
	ORIGIN           Opcode = 34
	FUNCTIONSELECTOR Opcode = 35
	TRANSACTIONFEE   Opcode = 36
	CHAINID          Opcode = 37
	VERSION          Opcode = 38
	BLOCKNUMBER      Opcode = 39
	TIMESTAMP        Opcode = 40
	FEEPERL2GAS      Opcode = 41
	FEEPERDAGAS      Opcode = 42
	ISSTATICCALL     Opcode = 43
	L2GASLEFT        Opcode = 44
	DAGASLEFT        Opcode = 45
)

// Calldata and returndata.
const (
	CALLDATACOPY   Opcode = 46
	RETURNDATASIZE Opcode = 47
	RETURNDATACOPY Opcode = 48
	SUCCESSCOPY    Opcode = 49
)

// Control flow. Locations are instruction indices, not byte offsets.
const (
	JUMP_32        Opcode = 50 // 0x32
	JUMPI_32       Opcode = 51
	INTERNALCALL   Opcode = 52
	INTERNALRETURN Opcode = 53
)

// Memory.
const (
	SET_8   Opcode = 54
	SET_16  Opcode = 55
	SET_32  Opcode = 56
	SET_64  Opcode = 57
	SET_128 Opcode = 58
	SET_FF  Opcode = 59
	MOV_8   Opcode = 60
	MOV_16  Opcode = 61
)

// World state.
const (
	SLOAD              Opcode = 62
	SSTORE             Opcode = 63
	NOTEHASHEXISTS     Opcode = 64 // 0x40
	EMITNOTEHASH       Opcode = 65
	NULLIFIEREXISTS    Opcode = 66
	EMITNULLIFIER      Opcode = 67
	EMITUNENCRYPTEDLOG Opcode = 68
	SENDL2TOL1MSG      Opcode = 69
)

// External calls and halting.
const (
	CALL       Opcode = 70
	STATICCALL Opcode = 71
	RETURN     Opcode = 72
	REVERT_8   Opcode = 73
	REVERT_16  Opcode = 74
)

// Gadgets.
const (
	KECCAK    Opcode = 75
	POSEIDON2 Opcode = 76
)

// NumOpcodes is one past the highest assigned opcode.
const NumOpcodes = 77

func (op Opcode) String() string {
	if spec, ok := InstrSpecs[op]; ok {
		return spec.Name
	}
	return fmt.Sprintf("UNKNOWN_%02x", uint8(op))
}

// AllOpcodes lists every assigned opcode in numeric order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, NumOpcodes)
	for op := Opcode(0); op < NumOpcodes; op++ {
		ops = append(ops, op)
	}
	return ops
}
