package program

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avm/memory"
)

// FormatInstruction renders an instruction using its registered format.
func FormatInstruction(instr Instruction) string {
	spec, exists := InstrSpecs[instr.Opcode()]
	if !exists {
		return fmt.Sprintf("unknown_opcode_%02x", uint8(instr.Opcode()))
	}
	result := spec.Format
	var indirect uint16
	for i, src := range instr.operands() {
		arg := spec.Args[i]
		if arg.Name == "indirect" {
			indirect = *src.(*uint16)
			continue
		}
		var formatted string
		switch p := src.(type) {
		case *memory.Tag:
			formatted = p.String()
		case *uint256.Int:
			if p.IsUint64() {
				formatted = fmt.Sprintf("%d", p.Uint64())
			} else {
				formatted = p.Hex()
			}
		case *uint32:
			formatted = fmt.Sprintf("%d", *p)
		default:
			formatted = fmt.Sprintf("%v", src)
		}
		result = strings.ReplaceAll(result, "{"+arg.Name+"}", formatted)
	}
	line := fmt.Sprintf("%-18s %s", spec.Name, result)
	if indirect != 0 {
		line += fmt.Sprintf("  ; indirect=%b", indirect)
	}
	return line
}

// Disassemble decodes bytecode and returns one line per instruction, each
// prefixed with its program counter and byte offset.
func Disassemble(bytecode []byte) ([]string, error) {
	var lines []string
	for cursor, pc := 0, 0; cursor < len(bytecode); pc++ {
		instr, n, err := Decode(bytecode, cursor)
		if err != nil {
			return lines, err
		}
		lines = append(lines, fmt.Sprintf("%4d  %06x  %s", pc, cursor, FormatInstruction(instr)))
		cursor += n
	}
	return lines, nil
}
