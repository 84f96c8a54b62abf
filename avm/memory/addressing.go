package memory

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/log"
)

type AddressingMode uint8

const (
	Direct AddressingMode = iota
	Indirect
)

// Addressing is the per-operand mode decoded from an instruction's
// indirect bitmask: bit i set makes operand i indirect.
type Addressing struct {
	modes []AddressingMode
}

func NewAddressing(indirect uint16, numOperands int) *Addressing {
	modes := make([]AddressingMode, numOperands)
	for i := range modes {
		if i < 16 && indirect&(1<<i) != 0 {
			modes[i] = Indirect
		}
	}
	return &Addressing{modes: modes}
}

// ToWire packs the modes back into a bitmask.
func (a *Addressing) ToWire() uint16 {
	var w uint16
	for i, m := range a.modes {
		if m == Indirect {
			w |= 1 << i
		}
	}
	return w
}

func (a *Addressing) IndirectCount() int {
	n := 0
	for _, m := range a.modes {
		if m == Indirect {
			n++
		}
	}
	return n
}

// Resolve maps raw operands to final offsets. A direct operand is its own
// offset; an indirect one is replaced by the UINT32 stored at that offset.
// Only one level of indirection is followed.
func (a *Addressing) Resolve(offsets []uint32, mem *MeteredMemory) ([]uint32, error) {
	if len(offsets) != len(a.modes) {
		return nil, fmt.Errorf("%w: %d operands for %d addressing modes", avmerrors.ErrMemoryAccessMismatch, len(offsets), len(a.modes))
	}
	resolved := make([]uint32, len(offsets))
	for i, off := range offsets {
		if a.modes[i] == Direct {
			resolved[i] = off
			continue
		}
		w := mem.Get(off)
		if w.Tag() != UINT32 {
			return nil, fmt.Errorf("%w: indirect operand %d at offset %d has %s, expected UINT32", avmerrors.ErrTagMismatch, i, off, w.Tag())
		}
		resolved[i] = w.Uint32()
		log.Trace(log.Memory, "indirect", "operand", i, "offset", off, "resolved", resolved[i])
	}
	return resolved, nil
}

func (a *Addressing) String() string {
	parts := make([]string, len(a.modes))
	for i, m := range a.modes {
		if m == Indirect {
			parts[i] = "I"
		} else {
			parts[i] = "D"
		}
	}
	return strings.Join(parts, "")
}
