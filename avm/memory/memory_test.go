package memory

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
)

func TestUninitializedReadsInvalidZero(t *testing.T) {
	m := NewTaggedMemory()
	w := m.Get(123)
	assert.Equal(t, INVALID, w.Tag())
	assert.True(t, w.IsZero())
	assert.Equal(t, 0, m.Len())
}

func TestTagEnforcement(t *testing.T) {
	m := NewTaggedMemory()
	m.Set(0, NewUint8(5))
	m.Set(1, NewUint16(5))
	m.Set(2, NewFieldFromUint64(5))

	require.NoError(t, m.CheckTag(UINT8, 0))
	for _, tc := range []struct {
		tag    Tag
		offset uint32
	}{
		{UINT16, 0}, {UINT8, 1}, {UINT8, 2}, {FIELD, 0}, {UINT32, 9},
	} {
		err := m.CheckTag(tc.tag, tc.offset)
		assert.ErrorIs(t, err, avmerrors.ErrTagMismatch, "tag %s offset %d", tc.tag, tc.offset)
	}
	assert.ErrorIs(t, m.CheckTagsAreSame(0, 1), avmerrors.ErrTagMismatch)
	assert.ErrorIs(t, m.CheckIsValidMemoryOffsetTag(0), avmerrors.ErrTagMismatch)

	// mixed-tag arithmetic never coerces
	_, err := Add(m.Get(0), m.Get(1))
	assert.ErrorIs(t, err, avmerrors.ErrTagMismatch)
	_, err = Add(m.Get(0), m.Get(77))
	assert.ErrorIs(t, err, avmerrors.ErrTagMismatch)
}

func TestSlices(t *testing.T) {
	m := NewTaggedMemory()
	require.NoError(t, m.SetSlice(10, []TaggedWord{NewUint32(1), NewUint32(2)}))
	got, err := m.GetSlice(9, 4)
	require.NoError(t, err)
	assert.Equal(t, []Tag{INVALID, UINT32, UINT32, INVALID}, []Tag{got[0].Tag(), got[1].Tag(), got[2].Tag(), got[3].Tag()})
	require.NoError(t, m.CheckTagsRange(UINT32, 10, 2))
	assert.ErrorIs(t, m.CheckTagsRange(UINT32, 10, 3), avmerrors.ErrTagMismatch)

	_, err = m.GetSlice(0xFFFFFFFF, 2)
	assert.ErrorIs(t, err, avmerrors.ErrMemorySliceOutOfRange)
}

func TestIntegerArithmeticWraps(t *testing.T) {
	sum, err := Add(NewUint8(250), NewUint8(10))
	require.NoError(t, err)
	assert.Equal(t, NewUint8(4), sum)

	diff, err := Sub(NewUint16(1), NewUint16(2))
	require.NoError(t, err)
	assert.Equal(t, NewUint16(0xFFFF), diff)

	prod, err := Mul(NewUint32(1<<31), NewUint32(4))
	require.NoError(t, err)
	assert.True(t, prod.IsZero())

	q, err := Div(NewUint64(7), NewUint64(2))
	require.NoError(t, err)
	assert.Equal(t, NewUint64(3), q)

	_, err = Div(NewUint64(7), NewUint64(0))
	assert.ErrorIs(t, err, avmerrors.ErrDivisionByZero)
}

func TestFieldArithmetic(t *testing.T) {
	a, b := NewFieldFromUint64(10), NewFieldFromUint64(4)
	q, err := FDiv(a, b)
	require.NoError(t, err)
	back, err := Mul(q, b)
	require.NoError(t, err)
	assert.Equal(t, a, back)

	_, err = FDiv(a, NewFieldFromUint64(0))
	assert.ErrorIs(t, err, avmerrors.ErrDivisionByZero)
	_, err = FDiv(NewUint8(1), NewUint8(1))
	assert.ErrorIs(t, err, avmerrors.ErrTagMismatch)

	// 0 - 1 wraps to p - 1
	neg, err := Sub(NewFieldFromUint64(0), NewFieldFromUint64(1))
	require.NoError(t, err)
	pMinus1 := new(uint256.Int).SubUint64(avmtypes.FieldModulus, 1)
	assert.Equal(t, pMinus1, neg.Value())

	ediv, err := Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, NewFieldFromUint64(2), ediv)
}

func TestComparisonsProduceUint1(t *testing.T) {
	lt, err := Lt(NewUint8(1), NewUint8(2))
	require.NoError(t, err)
	assert.Equal(t, NewUint1(true), lt)
	lte, err := Lte(NewUint8(2), NewUint8(2))
	require.NoError(t, err)
	assert.Equal(t, NewUint1(true), lte)
	eq, err := Eq(NewFieldFromUint64(3), NewFieldFromUint64(4))
	require.NoError(t, err)
	assert.Equal(t, NewUint1(false), eq)
}

func TestBitwise(t *testing.T) {
	n, err := Not(NewUint8(0x0F))
	require.NoError(t, err)
	assert.Equal(t, NewUint8(0xF0), n)

	s, err := Shl(NewUint8(0x81), NewUint8(1))
	require.NoError(t, err)
	assert.Equal(t, NewUint8(0x02), s)

	s, err = Shr(NewUint16(0x8000), NewUint16(16))
	require.NoError(t, err)
	assert.True(t, s.IsZero())

	x, err := Xor(NewUint32(0b1100), NewUint32(0b1010))
	require.NoError(t, err)
	assert.Equal(t, NewUint32(0b0110), x)

	_, err = And(NewFieldFromUint64(1), NewFieldFromUint64(1))
	assert.ErrorIs(t, err, avmerrors.ErrTagMismatch)
}

func TestCastTruncates(t *testing.T) {
	w := NewUint128(uint256.NewInt(300))
	c, err := Cast(w, UINT8)
	require.NoError(t, err)
	assert.Equal(t, UINT8, c.Tag())
	assert.Equal(t, uint64(44), c.Uint64())

	up, err := Cast(NewUint8(200), FIELD)
	require.NoError(t, err)
	assert.Equal(t, NewFieldFromUint64(200), up)

	_, err = Cast(w, INVALID)
	assert.ErrorIs(t, err, avmerrors.ErrInvalidTag)
}

func TestMeteredMemoryAssert(t *testing.T) {
	m := NewTaggedMemory()
	m.Set(0, NewUint32(5))
	m.Set(5, NewUint8(9))

	tracked := m.Track("ADD_8")
	addr := NewAddressing(0b01, 2)
	resolved, err := addr.Resolve([]uint32{0, 7}, tracked)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 7}, resolved)
	tracked.Get(resolved[0])
	tracked.Set(resolved[1], NewUint8(1))

	require.NoError(t, tracked.Assert(MemoryOperations{Reads: 1, Writes: 1, Addressing: addr}))
	err = tracked.Assert(MemoryOperations{Reads: 1, Writes: 1})
	assert.ErrorIs(t, err, avmerrors.ErrMemoryAccessMismatch)
}

func TestIndirectionIdempotence(t *testing.T) {
	m := NewTaggedMemory()
	m.Set(3, NewUint32(40))
	tracked := m.Track("test")

	direct := NewAddressing(0, 3)
	out, err := direct.Resolve([]uint32{3, 4, 5}, tracked)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 4, 5}, out)
	assert.Equal(t, 0, tracked.Reads())

	one := NewAddressing(0b001, 3)
	out, err = one.Resolve([]uint32{3, 4, 5}, tracked)
	require.NoError(t, err)
	assert.Equal(t, []uint32{40, 4, 5}, out)
	assert.Equal(t, 1, one.IndirectCount())
	assert.Equal(t, uint16(0b001), one.ToWire())
	assert.Equal(t, "IDD", one.String())

	// pointer slot must hold a UINT32
	bad := NewAddressing(0b010, 3)
	_, err = bad.Resolve([]uint32{3, 4, 5}, tracked)
	assert.ErrorIs(t, err, avmerrors.ErrTagMismatch)
}

func TestTagNames(t *testing.T) {
	tag, err := ParseTag("UINT64")
	require.NoError(t, err)
	assert.Equal(t, UINT64, tag)
	_, err = ParseTag("INVALID")
	assert.Error(t, err)
	assert.NoError(t, CheckIsValidTag(6))
	assert.ErrorIs(t, CheckIsValidTag(7), avmerrors.ErrInvalidTag)
}
