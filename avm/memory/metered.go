package memory

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
)

// MemoryOperations is the access shape an instruction declares.
type MemoryOperations struct {
	Reads      int
	Writes     int
	Addressing *Addressing
}

// MeteredMemory counts reads and writes for gas and for Assert. Tag checks
// are free and are not counted.
type MeteredMemory struct {
	*TaggedMemory
	name   string
	reads  int
	writes int
}

func (m *MeteredMemory) Get(offset uint32) TaggedWord {
	m.reads++
	return m.TaggedMemory.Get(offset)
}

func (m *MeteredMemory) GetSlice(offset uint32, size uint32) ([]TaggedWord, error) {
	out, err := m.TaggedMemory.GetSlice(offset, size)
	if err == nil {
		m.reads += int(size)
	}
	return out, err
}

func (m *MeteredMemory) Set(offset uint32, w TaggedWord) {
	m.writes++
	m.TaggedMemory.Set(offset, w)
}

func (m *MeteredMemory) SetSlice(offset uint32, words []TaggedWord) error {
	if err := m.TaggedMemory.SetSlice(offset, words); err != nil {
		return err
	}
	m.writes += len(words)
	return nil
}

func (m *MeteredMemory) Reads() int  { return m.reads }
func (m *MeteredMemory) Writes() int { return m.writes }

// Assert checks the counts against the declared shape. Every indirect
// operand adds one expected read.
func (m *MeteredMemory) Assert(ops MemoryOperations) error {
	expectedReads := ops.Reads
	if ops.Addressing != nil {
		expectedReads += ops.Addressing.IndirectCount()
	}
	if m.reads != expectedReads {
		return fmt.Errorf("%w: %s read %d times, expected %d", avmerrors.ErrMemoryAccessMismatch, m.name, m.reads, expectedReads)
	}
	if m.writes != ops.Writes {
		return fmt.Errorf("%w: %s wrote %d times, expected %d", avmerrors.ErrMemoryAccessMismatch, m.name, m.writes, ops.Writes)
	}
	return nil
}
