package memory

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/log"
)

// MaxMemorySize is the number of addressable slots.
const MaxMemorySize uint64 = 1 << 32

// TaggedMemory is the word-addressed memory of one frame. It is sparse:
// offsets never written read back as INVALID(0).
type TaggedMemory struct {
	words map[uint32]TaggedWord
}

func NewTaggedMemory() *TaggedMemory {
	return &TaggedMemory{words: make(map[uint32]TaggedWord)}
}

func (m *TaggedMemory) Get(offset uint32) TaggedWord {
	w, ok := m.words[offset]
	if !ok {
		log.Trace(log.Memory, "read of uninitialized slot", "offset", offset)
		return TaggedWord{tag: INVALID}
	}
	return w
}

func (m *TaggedMemory) Set(offset uint32, w TaggedWord) {
	m.words[offset] = w
}

func checkRange(offset uint32, size uint32) error {
	if uint64(offset)+uint64(size) > MaxMemorySize {
		return fmt.Errorf("%w: [%d, +%d)", avmerrors.ErrMemorySliceOutOfRange, offset, size)
	}
	return nil
}

func (m *TaggedMemory) GetSlice(offset uint32, size uint32) ([]TaggedWord, error) {
	if err := checkRange(offset, size); err != nil {
		return nil, err
	}
	out := make([]TaggedWord, size)
	for i := uint32(0); i < size; i++ {
		out[i] = m.Get(offset + i)
	}
	return out, nil
}

func (m *TaggedMemory) SetSlice(offset uint32, words []TaggedWord) error {
	if uint64(len(words)) > MaxMemorySize {
		return fmt.Errorf("%w: %d words", avmerrors.ErrMemorySliceOutOfRange, len(words))
	}
	if err := checkRange(offset, uint32(len(words))); err != nil {
		return err
	}
	for i, w := range words {
		m.words[offset+uint32(i)] = w
	}
	return nil
}

func (m *TaggedMemory) GetTag(offset uint32) Tag {
	if w, ok := m.words[offset]; ok {
		return w.tag
	}
	return INVALID
}

// Len is the number of initialized slots.
func (m *TaggedMemory) Len() int {
	return len(m.words)
}

func (m *TaggedMemory) CheckTag(tag Tag, offset uint32) error {
	if got := m.GetTag(offset); got != tag {
		return fmt.Errorf("%w: offset %d has %s, expected %s", avmerrors.ErrTagMismatch, offset, got, tag)
	}
	return nil
}

func (m *TaggedMemory) CheckTags(tag Tag, offsets ...uint32) error {
	for _, o := range offsets {
		if err := m.CheckTag(tag, o); err != nil {
			return err
		}
	}
	return nil
}

func (m *TaggedMemory) CheckTagsRange(tag Tag, offset uint32, size uint32) error {
	if err := checkRange(offset, size); err != nil {
		return err
	}
	for i := uint32(0); i < size; i++ {
		if err := m.CheckTag(tag, offset+i); err != nil {
			return err
		}
	}
	return nil
}

// CheckTagsAreSame requires every offset to carry the tag of the first one.
func (m *TaggedMemory) CheckTagsAreSame(offsets ...uint32) error {
	if len(offsets) == 0 {
		return nil
	}
	return m.CheckTags(m.GetTag(offsets[0]), offsets[1:]...)
}

// CheckIsValidMemoryOffsetTag requires a UINT32 word, the type of offsets and sizes.
func (m *TaggedMemory) CheckIsValidMemoryOffsetTag(offset uint32) error {
	return m.CheckTag(UINT32, offset)
}

// Track returns a view of m that counts accesses made by one instruction.
func (m *TaggedMemory) Track(name string) *MeteredMemory {
	return &MeteredMemory{TaggedMemory: m, name: name}
}
