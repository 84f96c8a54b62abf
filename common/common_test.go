package common

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestKeccak256Empty(t *testing.T) {
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := Keccak256(nil).Hex(); got != want {
		t.Fatalf("keccak256('') = %s, want %s", got, want)
	}
}

func TestHashJSON(t *testing.T) {
	h := Blake2Hash([]byte("avm"))
	b, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Hash
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != h || back == (Hash{}) {
		t.Fatalf("round trip gave %s, want %s", back, h)
	}
}

func TestHex(t *testing.T) {
	b, err := DecodeHex("0x0102")
	if err != nil || !bytes.Equal(b, []byte{1, 2}) {
		t.Fatalf("DecodeHex = %x, %v", b, err)
	}
	if _, err := DecodeHex("0102"); err == nil {
		t.Fatal("expected an error without the 0x prefix")
	}

	h := Keccak256([]byte{1, 2})
	if HexToHash(h.Hex()) != h {
		t.Fatalf("HexToHash(%s) does not round trip", h.Hex())
	}
	if n := len(h.String_short()); n != 10 {
		t.Fatalf("String_short length %d", n)
	}
}
