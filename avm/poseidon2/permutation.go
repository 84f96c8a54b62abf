// Package poseidon2 is the width-4 Poseidon2 permutation over the BN254
// scalar field, with x^5 s-box, 8 full and 56 partial rounds.
package poseidon2

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

const (
	Width         = 4
	fullRounds    = 8
	partialRounds = 56
	numRounds     = fullRounds + partialRounds
)

// Permutation holds the parsed parameters. It is immutable and safe for
// concurrent use.
type Permutation struct {
	diag [Width]fr.Element
	rc   [numRounds][Width]fr.Element
}

// New parses the parameter tables.
func New() (*Permutation, error) {
	p := new(Permutation)
	for i, s := range internalDiagonal {
		if _, err := p.diag[i].SetString(s); err != nil {
			return nil, fmt.Errorf("poseidon2 diagonal %d: %w", i, err)
		}
	}
	for r := range roundConstants {
		for i, s := range roundConstants[r] {
			if _, err := p.rc[r][i].SetString(s); err != nil {
				return nil, fmt.Errorf("poseidon2 round constant %d/%d: %w", r, i, err)
			}
		}
	}
	return p, nil
}

// Permute applies the permutation to state in place.
func (p *Permutation) Permute(state *[Width]fr.Element) {
	external(state)
	half := fullRounds / 2
	for r := 0; r < half; r++ {
		p.fullRound(state, r)
	}
	for r := half; r < half+partialRounds; r++ {
		state[0].Add(&state[0], &p.rc[r][0])
		sbox(&state[0])
		p.internal(state)
	}
	for r := half + partialRounds; r < numRounds; r++ {
		p.fullRound(state, r)
	}
}

func (p *Permutation) fullRound(state *[Width]fr.Element, r int) {
	for i := range state {
		state[i].Add(&state[i], &p.rc[r][i])
		sbox(&state[i])
	}
	external(state)
}

func sbox(x *fr.Element) {
	var sq fr.Element
	sq.Square(x)
	sq.Square(&sq)
	x.Mul(x, &sq)
}

// external multiplies by the circulant-style matrix
//
//	5 7 1 3
//	4 6 1 1
//	1 3 5 7
//	1 1 4 6
func external(s *[Width]fr.Element) {
	var t0, t1, t2, t3, t4, t5 fr.Element
	t0.Add(&s[0], &s[1])
	t1.Add(&s[2], &s[3])
	t2.Double(&s[1]).Add(&t2, &t1)
	t3.Double(&s[3]).Add(&t3, &t0)
	t4.Double(&t1).Double(&t4).Add(&t4, &t3)
	t5.Double(&t0).Double(&t5).Add(&t5, &t2)
	s[0].Add(&t3, &t5)
	s[1].Set(&t5)
	s[2].Add(&t2, &t4)
	s[3].Set(&t4)
}

// internal is diag(d) + J: each lane becomes x_i*d_i + sum(x).
func (p *Permutation) internal(s *[Width]fr.Element) {
	var sum fr.Element
	for i := range s {
		sum.Add(&sum, &s[i])
	}
	for i := range s {
		s[i].Mul(&s[i], &p.diag[i]).Add(&s[i], &sum)
	}
}
