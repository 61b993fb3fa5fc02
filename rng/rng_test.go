package rng

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k.String(), got)
		}
		if k.Description() == "" {
			t.Errorf("%v has no description", k)
		}
	}
	if k, err := ParseKind(" MT19937 "); err != nil || k != KindMersenne {
		t.Errorf("ParseKind alias = %v, %v", k, err)
	}
	if _, err := ParseKind("dev/random"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind unknown error = %v", err)
	}
}

func TestRollValid(t *testing.T) {
	tests := []struct {
		roll Roll
		want bool
	}{
		{Roll{1, 6}, true},
		{Roll{6, 1}, true},
		{Roll{0, 3}, false},
		{Roll{3, 7}, false},
		{Roll{-1, -1}, false},
	}
	for _, test := range tests {
		if got := test.roll.Valid(); got != test.want {
			t.Errorf("%v.Valid() = %v", test.roll, got)
		}
	}
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0", "0", false},
		{" 42 ", "42", false},
		{"123456789012345678901234567890", "123456789012345678901234567890", false},
		{"-1", "", true},
		{"abc", "", true},
		{"12ab", "", true},
		{"", "", true},
		{"1.5", "", true},
	}
	for _, test := range tests {
		n, err := ParseSeed(test.in)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidSeed) {
				t.Errorf("ParseSeed(%q) error = %v", test.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSeed(%q): %v", test.in, err)
			continue
		}
		if n.String() != test.want {
			t.Errorf("ParseSeed(%q) = %s", test.in, n)
		}
	}
}

func TestCheckSeed(t *testing.T) {
	if _, err := CheckSeed(-5); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("negative seed error = %v", err)
	}
	if _, err := CheckSeed(1 << 32); !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("oversized seed error = %v", err)
	}
	if n, err := CheckSeed(1<<32 - 1); err != nil || n != 1<<32-1 {
		t.Errorf("CheckSeed(max) = %d, %v", n, err)
	}
}

func TestWords(t *testing.T) {
	n, _ := new(big.Int).SetString("0102030405060708090a", 16)
	words := Words(n)
	want := []uint32{0x0708090a, 0x03040506, 0x0102}
	if len(words) != len(want) {
		t.Fatalf("Words = %x", words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %#x, want %#x", i, words[i], want[i])
		}
	}
	if back := FromWords(words); back.Cmp(n) != 0 {
		t.Errorf("FromWords = %x", back)
	}
	if len(Words(new(big.Int))) != 0 {
		t.Error("Words(0) not empty")
	}
}
