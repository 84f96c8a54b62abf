package memory

import (
	"fmt"

	"github.com/colorfulnotion/avm/avmerrors"
)

// Tag is the declared type of a memory word.
type Tag uint8

const (
	FIELD   Tag = 0
	UINT1   Tag = 1
	UINT8   Tag = 2
	UINT16  Tag = 3
	UINT32  Tag = 4
	UINT64  Tag = 5
	UINT128 Tag = 6
	INVALID Tag = 7
)

var tagNames = [...]string{"FIELD", "UINT1", "UINT8", "UINT16", "UINT32", "UINT64", "UINT128", "INVALID"}

var tagBits = [...]uint{254, 1, 8, 16, 32, 64, 128, 0}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("TAG(%d)", uint8(t))
}

// Bits is the integer width of the tag; FIELD reports 254.
func (t Tag) Bits() uint {
	if int(t) < len(tagBits) {
		return tagBits[t]
	}
	return 0
}

func (t Tag) IsIntegral() bool {
	return t >= UINT1 && t <= UINT128
}

func (t Tag) IsValid() bool {
	return t <= UINT128
}

func ParseTag(s string) (Tag, error) {
	for i, n := range tagNames[:INVALID] {
		if n == s {
			return Tag(i), nil
		}
	}
	return INVALID, fmt.Errorf("%w: %q", avmerrors.ErrInvalidTag, s)
}

// CheckIsIntegralTag fails unless tag is one of the unsigned integer tags.
func CheckIsIntegralTag(tag Tag) error {
	if !tag.IsIntegral() {
		return fmt.Errorf("%w: %s is not integral", avmerrors.ErrTagMismatch, tag)
	}
	return nil
}

// CheckIsValidTag validates a raw tag byte taken from bytecode.
func CheckIsValidTag(raw uint8) error {
	if !Tag(raw).IsValid() {
		return fmt.Errorf("%w: %d", avmerrors.ErrInvalidTag, raw)
	}
	return nil
}
