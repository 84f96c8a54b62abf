package poseidon2

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func TestPermuteKnownAnswer(t *testing.T) {
	p, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var state [Width]fr.Element
	for i := range state {
		state[i].SetUint64(uint64(i))
	}
	p.Permute(&state)

	want := [Width]string{
		"0x01bd538c2ee014ed5141b29e9ae240bf8db3fe5b9a38629a9647cf8d76c01737",
		"0x239b62e7db98aa3a2a8f6a0d2fa1709e7a35959aa6c7034814d9daa90cbac662",
		"0x04cbb44c61d928ed06808456bf758cbf0c18d1e15a7b6dbc8245fa7515d5e3cb",
		"0x2e11c5cff2a22c64d01304b778d78f6998eff1ab73163a35603f54794c30847a",
	}
	for i := range want {
		var w fr.Element
		if _, err := w.SetString(want[i]); err != nil {
			t.Fatalf("bad vector %d: %v", i, err)
		}
		if !state[i].Equal(&w) {
			t.Fatalf("lane %d: got %s want %s", i, state[i].String(), w.String())
		}
	}
}

func TestExternalMatrix(t *testing.T) {
	// columns of the matrix are recovered from unit vectors
	rows := [Width][Width]uint64{{5, 7, 1, 3}, {4, 6, 1, 1}, {1, 3, 5, 7}, {1, 1, 4, 6}}
	for col := 0; col < Width; col++ {
		var s [Width]fr.Element
		s[col].SetOne()
		external(&s)
		for row := 0; row < Width; row++ {
			if got := s[row].Uint64(); got != rows[row][col] {
				t.Fatalf("M[%d][%d] = %d, want %d", row, col, got, rows[row][col])
			}
		}
	}
}
