package memory

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
)

// TaggedWord is the content of one memory slot. The value is always reduced
// to the tag's range: modulo 2^bits for integers and modulo p for FIELD.
type TaggedWord struct {
	tag   Tag
	value uint256.Int
}

var masks [UINT128 + 1]uint256.Int

func init() {
	for t := UINT1; t <= UINT128; t++ {
		one := uint256.NewInt(1)
		masks[t].Sub(new(uint256.Int).Lsh(one, t.Bits()), one)
	}
}

// FromTagTruncating builds a word of the given tag, truncating v to fit.
func FromTagTruncating(tag Tag, v *uint256.Int) (TaggedWord, error) {
	w := TaggedWord{tag: tag}
	switch {
	case tag == FIELD:
		w.value.Mod(v, avmtypes.FieldModulus)
	case tag.IsIntegral():
		w.value.And(v, &masks[tag])
	default:
		return TaggedWord{}, fmt.Errorf("%w: cannot build a value of tag %s", avmerrors.ErrInvalidTag, tag)
	}
	return w, nil
}

func mustTruncate(tag Tag, v *uint256.Int) TaggedWord {
	w, err := FromTagTruncating(tag, v)
	if err != nil {
		panic(err)
	}
	return w
}

// NewUint builds an integer word, truncating v. tag must be integral.
func NewUint(tag Tag, v uint64) TaggedWord {
	return mustTruncate(tag, uint256.NewInt(v))
}

func NewUint1(b bool) TaggedWord {
	if b {
		return NewUint(UINT1, 1)
	}
	return NewUint(UINT1, 0)
}

func NewUint8(v uint8) TaggedWord   { return NewUint(UINT8, uint64(v)) }
func NewUint16(v uint16) TaggedWord { return NewUint(UINT16, uint64(v)) }
func NewUint32(v uint32) TaggedWord { return NewUint(UINT32, uint64(v)) }
func NewUint64(v uint64) TaggedWord { return NewUint(UINT64, v) }

func NewUint128(v *uint256.Int) TaggedWord {
	return mustTruncate(UINT128, v)
}

func NewField(f avmtypes.Fr) TaggedWord {
	w := TaggedWord{tag: FIELD}
	w.value.Set(avmtypes.FrToUint256(&f))
	return w
}

func NewFieldFromUint64(v uint64) TaggedWord {
	return NewField(avmtypes.FrFromUint64(v))
}

func (w TaggedWord) Tag() Tag {
	return w.tag
}

// Value returns a copy of the underlying integer.
func (w TaggedWord) Value() *uint256.Int {
	return new(uint256.Int).Set(&w.value)
}

func (w TaggedWord) Uint64() uint64 {
	return w.value.Uint64()
}

// Uint32 is meaningful for words tagged UINT32 or narrower.
func (w TaggedWord) Uint32() uint32 {
	return uint32(w.value.Uint64())
}

func (w TaggedWord) IsZero() bool {
	return w.value.IsZero()
}

// Fr converts any word to a field element.
func (w TaggedWord) Fr() avmtypes.Fr {
	return avmtypes.FrFromUint256(&w.value)
}

// Bytes32 is the big-endian 32-byte encoding of the value.
func (w TaggedWord) Bytes32() [32]byte {
	return w.value.Bytes32()
}

func (w TaggedWord) Equal(o TaggedWord) bool {
	return w.tag == o.tag && w.value.Eq(&o.value)
}

func (w TaggedWord) String() string {
	return fmt.Sprintf("%s(%s)", w.tag, w.value.Hex())
}
