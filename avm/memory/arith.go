package memory

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/colorfulnotion/avm/avmerrors"
	"github.com/colorfulnotion/avm/avm/avmtypes"
)

func sameTag(a, b TaggedWord) error {
	if a.tag != b.tag {
		return fmt.Errorf("%w: %s vs %s", avmerrors.ErrTagMismatch, a.tag, b.tag)
	}
	if !a.tag.IsValid() {
		return fmt.Errorf("%w: operands tagged %s", avmerrors.ErrTagMismatch, a.tag)
	}
	return nil
}

func integral(a, b TaggedWord) error {
	if err := sameTag(a, b); err != nil {
		return err
	}
	return CheckIsIntegralTag(a.tag)
}

func fieldOp(a, b TaggedWord, op func(z, x, y *avmtypes.Fr) *avmtypes.Fr) TaggedWord {
	x, y := a.Fr(), b.Fr()
	var z avmtypes.Fr
	op(&z, &x, &y)
	return NewField(z)
}

// Add wraps modulo 2^bits for integers and is field addition for FIELD.
func Add(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	if a.tag == FIELD {
		return fieldOp(a, b, (*avmtypes.Fr).Add), nil
	}
	return mustTruncate(a.tag, new(uint256.Int).Add(&a.value, &b.value)), nil
}

func Sub(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	if a.tag == FIELD {
		return fieldOp(a, b, (*avmtypes.Fr).Sub), nil
	}
	return mustTruncate(a.tag, new(uint256.Int).Sub(&a.value, &b.value)), nil
}

func Mul(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	if a.tag == FIELD {
		return fieldOp(a, b, (*avmtypes.Fr).Mul), nil
	}
	return mustTruncate(a.tag, new(uint256.Int).Mul(&a.value, &b.value)), nil
}

// Div is truncating integer division. FIELD operands are divided as their
// canonical integer representatives.
func Div(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	if b.value.IsZero() {
		return TaggedWord{}, fmt.Errorf("%w: DIV", avmerrors.ErrDivisionByZero)
	}
	return mustTruncate(a.tag, new(uint256.Int).Div(&a.value, &b.value)), nil
}

// FDiv is a * b^-1 over the field. Only FIELD operands are accepted.
func FDiv(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	if a.tag != FIELD {
		return TaggedWord{}, fmt.Errorf("%w: FDIV needs FIELD, got %s", avmerrors.ErrTagMismatch, a.tag)
	}
	if b.value.IsZero() {
		return TaggedWord{}, fmt.Errorf("%w: FDIV", avmerrors.ErrDivisionByZero)
	}
	return fieldOp(a, b, (*avmtypes.Fr).Div), nil
}

// Eq, Lt and Lte compare canonical representatives and produce UINT1.
func Eq(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	return NewUint1(a.value.Eq(&b.value)), nil
}

func Lt(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	return NewUint1(a.value.Lt(&b.value)), nil
}

func Lte(a, b TaggedWord) (TaggedWord, error) {
	if err := sameTag(a, b); err != nil {
		return TaggedWord{}, err
	}
	return NewUint1(!a.value.Gt(&b.value)), nil
}

func And(a, b TaggedWord) (TaggedWord, error) {
	if err := integral(a, b); err != nil {
		return TaggedWord{}, err
	}
	return mustTruncate(a.tag, new(uint256.Int).And(&a.value, &b.value)), nil
}

func Or(a, b TaggedWord) (TaggedWord, error) {
	if err := integral(a, b); err != nil {
		return TaggedWord{}, err
	}
	return mustTruncate(a.tag, new(uint256.Int).Or(&a.value, &b.value)), nil
}

func Xor(a, b TaggedWord) (TaggedWord, error) {
	if err := integral(a, b); err != nil {
		return TaggedWord{}, err
	}
	return mustTruncate(a.tag, new(uint256.Int).Xor(&a.value, &b.value)), nil
}

func Not(a TaggedWord) (TaggedWord, error) {
	if err := CheckIsIntegralTag(a.tag); err != nil {
		return TaggedWord{}, err
	}
	return mustTruncate(a.tag, new(uint256.Int).Not(&a.value)), nil
}

// Shl shifts left within the tag width; shifting by the width or more yields 0.
func Shl(a, b TaggedWord) (TaggedWord, error) {
	if err := integral(a, b); err != nil {
		return TaggedWord{}, err
	}
	if !b.value.LtUint64(uint64(a.tag.Bits())) {
		return NewUint(a.tag, 0), nil
	}
	return mustTruncate(a.tag, new(uint256.Int).Lsh(&a.value, uint(b.value.Uint64()))), nil
}

func Shr(a, b TaggedWord) (TaggedWord, error) {
	if err := integral(a, b); err != nil {
		return TaggedWord{}, err
	}
	if !b.value.LtUint64(uint64(a.tag.Bits())) {
		return NewUint(a.tag, 0), nil
	}
	return mustTruncate(a.tag, new(uint256.Int).Rsh(&a.value, uint(b.value.Uint64()))), nil
}

// Cast reinterprets a under a new tag, truncating to the destination width.
// It is the only operation allowed to change a word's tag.
func Cast(a TaggedWord, dst Tag) (TaggedWord, error) {
	return FromTagTruncating(dst, &a.value)
}
