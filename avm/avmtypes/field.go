package avmtypes

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// Fr is an element of the BN254 scalar field. Addresses, calldata and
// storage slots are all field elements.
type Fr = fr.Element

// FieldModulus is p, the order of the BN254 scalar field.
var FieldModulus = uint256.MustFromBig(fr.Modulus())

func FrFromUint64(v uint64) Fr {
	var f Fr
	f.SetUint64(v)
	return f
}

// FrFromUint256 reduces u modulo p.
func FrFromUint256(u *uint256.Int) Fr {
	var f Fr
	b := u.Bytes32()
	f.SetBytes(b[:])
	return f
}

// FrToUint256 returns the canonical integer representative of f.
func FrToUint256(f *Fr) *uint256.Int {
	b := f.Bytes()
	return new(uint256.Int).SetBytes32(b[:])
}

// FrFromString parses a 0x-prefixed or decimal string.
func FrFromString(s string) (Fr, error) {
	var f Fr
	bi, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return f, fmt.Errorf("invalid field element %q", s)
	}
	if bi.Sign() < 0 || bi.Cmp(fr.Modulus()) >= 0 {
		return f, fmt.Errorf("field element %q out of range", s)
	}
	f.SetBigInt(bi)
	return f, nil
}

// FrsFromUint64s is a convenience for calldata literals.
func FrsFromUint64s(vs ...uint64) []Fr {
	out := make([]Fr, len(vs))
	for i, v := range vs {
		out[i] = FrFromUint64(v)
	}
	return out
}

func FrHex(f *Fr) string {
	b := f.Bytes()
	return fmt.Sprintf("0x%x", b[:])
}
