package program

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
	"github.com/colorfulnotion/avm/avm/memory"
)

// Decode reads the instruction starting at bytecode[cursor] and returns it
// with the number of bytes consumed.
func Decode(bytecode []byte, cursor int) (Instruction, int, error) {
	if cursor < 0 || cursor >= len(bytecode) {
		return nil, 0, fmt.Errorf("%w: cursor %d outside %d bytes", avmerrors.ErrDeserialization, cursor, len(bytecode))
	}
	op := Opcode(bytecode[cursor])
	spec, ok := InstrSpecs[op]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %w 0x%02x at byte %d", avmerrors.ErrDeserialization, avmerrors.ErrUnknownOpcode, uint8(op), cursor)
	}
	size := spec.Size()
	if cursor+size > len(bytecode) {
		return nil, 0, fmt.Errorf("%w: %s needs %d bytes at %d, have %d", avmerrors.ErrDeserialization, spec.Name, size, cursor, len(bytecode)-cursor)
	}
	instr := spec.New(op)
	pos := cursor + 1
	for i, dst := range instr.operands() {
		arg := spec.Args[i]
		n := arg.Type.Size()
		if err := setOperand(dst, bytecode[pos:pos+n]); err != nil {
			return nil, 0, fmt.Errorf("%w: %s.%s: %v", avmerrors.ErrDeserialization, spec.Name, arg.Name, err)
		}
		pos += n
	}
	return instr, size, nil
}

// DecodeAll decodes a whole program. The result is indexed by program counter.
func DecodeAll(bytecode []byte) ([]Instruction, error) {
	var out []Instruction
	for cursor := 0; cursor < len(bytecode); {
		instr, n, err := Decode(bytecode, cursor)
		if err != nil {
			return nil, err
		}
		out = append(out, instr)
		cursor += n
	}
	return out, nil
}

// Encode is the inverse of Decode. It fails if an operand does not fit its
// wire width.
func Encode(instr Instruction) ([]byte, error) {
	spec, ok := InstrSpecs[instr.Opcode()]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", avmerrors.ErrUnknownOpcode, uint8(instr.Opcode()))
	}
	ops := instr.operands()
	if len(ops) != len(spec.Args) {
		return nil, fmt.Errorf("%s: %d operands for %d wire arguments", spec.Name, len(ops), len(spec.Args))
	}
	buf := make([]byte, 1, spec.Size())
	buf[0] = byte(spec.Opcode)
	for i, src := range ops {
		arg := spec.Args[i]
		v := operandValue(src)
		n := arg.Type.Size()
		if v.BitLen() > 8*n {
			return nil, fmt.Errorf("%w: %s.%s=%s exceeds %d bytes", avmerrors.ErrOperandOverflow, spec.Name, arg.Name, v.Hex(), n)
		}
		b := v.Bytes32()
		buf = append(buf, b[32-n:]...)
	}
	return buf, nil
}

func EncodeAll(instrs []Instruction) ([]byte, error) {
	var buf bytes.Buffer
	for pc, instr := range instrs {
		b, err := Encode(instr)
		if err != nil {
			return nil, fmt.Errorf("pc %d: %w", pc, err)
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// MustEncodeAll is EncodeAll for programs built from literals.
func MustEncodeAll(instrs ...Instruction) []byte {
	b, err := EncodeAll(instrs)
	if err != nil {
		panic(err)
	}
	return b
}

func setOperand(dst any, raw []byte) error {
	v := new(uint256.Int).SetBytes(raw)
	switch p := dst.(type) {
	case *uint16:
		if !v.IsUint64() || v.Uint64() > 0xFFFF {
			return fmt.Errorf("value %s does not fit 16 bits", v.Hex())
		}
		*p = uint16(v.Uint64())
	case *uint32:
		if !v.IsUint64() || v.Uint64() > 0xFFFFFFFF {
			return fmt.Errorf("value %s does not fit 32 bits", v.Hex())
		}
		*p = uint32(v.Uint64())
	case *memory.Tag:
		*p = memory.Tag(v.Uint64())
	case *uint256.Int:
		p.Set(v)
	default:
		return fmt.Errorf("unsupported operand %T", dst)
	}
	return nil
}

func operandValue(src any) *uint256.Int {
	switch p := src.(type) {
	case *uint16:
		return uint256.NewInt(uint64(*p))
	case *uint32:
		return uint256.NewInt(uint64(*p))
	case *memory.Tag:
		return uint256.NewInt(uint64(*p))
	case *uint256.Int:
		return new(uint256.Int).Set(p)
	}
	panic(fmt.Sprintf("unsupported operand %T", src))
}

// Build constructs an instruction from operand values given in wire order.
// Accepted values are unsigned and signed Go integers, memory.Tag,
// *uint256.Int and avmtypes.Fr.
func Build(op Opcode, values ...any) (Instruction, error) {
	spec, ok := InstrSpecs[op]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02x", avmerrors.ErrUnknownOpcode, uint8(op))
	}
	if len(values) != len(spec.Args) {
		return nil, fmt.Errorf("%s takes %d operands, got %d", spec.Name, len(spec.Args), len(values))
	}
	instr := spec.New(op)
	for i, dst := range instr.operands() {
		v, err := toUint256(values[i])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", spec.Name, spec.Args[i].Name, err)
		}
		b := v.Bytes32()
		if err := setOperand(dst, b[:]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", spec.Name, spec.Args[i].Name, err)
		}
	}
	return instr, nil
}

// MustBuild panics on error; it is meant for tests and fixed programs.
func MustBuild(op Opcode, values ...any) Instruction {
	instr, err := Build(op, values...)
	if err != nil {
		panic(err)
	}
	return instr
}

func toUint256(v any) (*uint256.Int, error) {
	switch x := v.(type) {
	case int:
		if x < 0 {
			return nil, fmt.Errorf("negative operand %d", x)
		}
		return uint256.NewInt(uint64(x)), nil
	case uint8:
		return uint256.NewInt(uint64(x)), nil
	case uint16:
		return uint256.NewInt(uint64(x)), nil
	case uint32:
		return uint256.NewInt(uint64(x)), nil
	case uint64:
		return uint256.NewInt(x), nil
	case memory.Tag:
		return uint256.NewInt(uint64(x)), nil
	case *uint256.Int:
		return new(uint256.Int).Set(x), nil
	case avmtypes.Fr:
		return avmtypes.FrToUint256(&x), nil
	}
	return nil, fmt.Errorf("unsupported operand value %T", v)
}
