package bbs

import (
	"bytes"
	"errors"
	"math/big"
	"math/rand"
	"strings"
	"testing"

	"github.com/tutils/tdice/rng"
)

func bitsOf(bits ...uint) func() uint {
	return func() uint {
		b := bits[0]
		bits = bits[1:]
		return b
	}
}

func TestIsGoodFactor(t *testing.T) {
	tests := []struct {
		x    int64
		want bool
	}{
		{3, false},
		{7, false},
		{11, false},
		{17, false},
		{19, true},
		{21, false},
		{23, true},
		{27, false},
		{29, false},
		{43, true},
		{31, true},
		{47, true},
	}
	for _, test := range tests {
		if got := IsGoodFactor(big.NewInt(test.x)); got != test.want {
			t.Errorf("IsGoodFactor(%d) = %v", test.x, got)
		}
	}
}

func TestValidateFactorsSubstitutes(t *testing.T) {
	f, err := ValidateFactors(big.NewInt(4), big.NewInt(9))
	if err != nil {
		t.Fatal(err)
	}
	if f.P.Int64() != 19 || f.Q.Int64() != 23 {
		t.Errorf("factors = %s, %s, want 19, 23", f.P, f.Q)
	}
	if !f.PReplaced || !f.QReplaced {
		t.Errorf("replacement flags = %v, %v", f.PReplaced, f.QReplaced)
	}
	if f.Modulus().Int64() != 437 {
		t.Errorf("modulus = %s, want 437", f.Modulus())
	}
}

func TestValidateFactorsKeepsGood(t *testing.T) {
	f, err := ValidateFactors(big.NewInt(43), big.NewInt(19))
	if err != nil {
		t.Fatal(err)
	}
	if f.P.Int64() != 43 || f.Q.Int64() != 19 || f.PReplaced || f.QReplaced {
		t.Errorf("factors = %+v", f)
	}
}

func TestValidateFactorsDistinct(t *testing.T) {
	f, err := ValidateFactors(big.NewInt(23), big.NewInt(23))
	if err != nil {
		t.Fatal(err)
	}
	if f.P.Cmp(f.Q) == 0 {
		t.Fatalf("factors not distinct: %s", f.P)
	}
	if !IsGoodFactor(f.Q) || !f.QReplaced || f.PReplaced {
		t.Errorf("factors = %+v", f)
	}

	// q just below p lands on p first and must search again.
	f, err = ValidateFactors(big.NewInt(23), big.NewInt(20))
	if err != nil {
		t.Fatal(err)
	}
	if f.P.Int64() != 23 || f.Q.Int64() != 31 {
		t.Errorf("factors = %s, %s, want 23, 31", f.P, f.Q)
	}
}

func TestValidateFactorsRejects(t *testing.T) {
	for _, pq := range [][2]int64{{0, 23}, {19, 0}, {-19, 23}, {19, -23}} {
		if _, err := ValidateFactors(big.NewInt(pq[0]), big.NewInt(pq[1])); !errors.Is(err, ErrInvalidFactor) {
			t.Errorf("ValidateFactors(%d, %d) error = %v", pq[0], pq[1], err)
		}
	}
	if _, err := ParseFactors("x", "23"); !errors.Is(err, ErrInvalidFactor) {
		t.Errorf("ParseFactors error = %v", err)
	}
}

func TestRandomFactors(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	f, err := RandomFactors(r, 64)
	if err != nil {
		t.Fatal(err)
	}
	if !IsGoodFactor(f.P) || !IsGoodFactor(f.Q) || f.P.Cmp(f.Q) == 0 {
		t.Errorf("factors = %+v", f)
	}
	if f.P.BitLen() < 64 || f.Q.BitLen() < 64 {
		t.Errorf("factor sizes = %d, %d bits", f.P.BitLen(), f.Q.BitLen())
	}
	if _, err := RandomFactors(bytes.NewReader(nil), 64); err == nil {
		t.Error("RandomFactors with empty entropy succeeded")
	}
}

func TestTritTable(t *testing.T) {
	tests := []struct {
		bits []uint
		want uint
	}{
		{[]uint{0, 0}, 0},
		{[]uint{1, 1}, 2},
		{[]uint{0, 1, 1}, 1},
		{[]uint{1, 0, 0}, 1},
		{[]uint{0, 1, 0, 0}, 0},
		{[]uint{1, 0, 1, 1}, 2},
		{[]uint{0, 1, 0, 1, 1}, 1},
	}
	for _, test := range tests {
		if got := Trit(bitsOf(test.bits...)); got != test.want {
			t.Errorf("Trit(%v) = %d, want %d", test.bits, got, test.want)
		}
	}
}

func TestTritExactDistribution(t *testing.T) {
	// Feed every 16-bit string. Strings that do not terminate within 16
	// bits bound the deviation from exactly a third.
	const width = 16
	var counts [3]int
	unterminated := 0
	for s := 0; s < 1<<width; s++ {
		i := 0
		over := false
		out := Trit(func() uint {
			if i >= width {
				over = true
				return 0
			}
			b := uint(s>>i) & 1
			i++
			return b
		})
		if over {
			unterminated++
			continue
		}
		counts[out]++
	}
	third := (1 << width) / 3
	for o, c := range counts {
		if d := c - third; d > unterminated+1 || d < -(unterminated+1) {
			t.Errorf("trit %d: %d strings, want %d +- %d", o, c, third, unterminated)
		}
	}
}

func TestTritFairCoin(t *testing.T) {
	const n = 90000
	coin := rand.New(rand.NewSource(3))
	bit := func() uint { return uint(coin.Intn(2)) }
	var counts [3]int
	for i := 0; i < n; i++ {
		counts[Trit(bit)]++
	}
	for o, c := range counts {
		if d := c - n/3; d > 750 || d < -750 {
			t.Errorf("trit %d: %d, want about %d", o, c, n/3)
		}
	}

	var faces [7]int
	for i := 0; i < 60000; i++ {
		faces[Face(bit)]++
	}
	if faces[0] != 0 {
		t.Fatalf("face 0 produced")
	}
	for f := 1; f <= 6; f++ {
		if d := faces[f] - 10000; d > 500 || d < -500 {
			t.Errorf("face %d: %d, want about 10000", f, faces[f])
		}
	}
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	p := NextGoodFactor(big.NewInt(1000000))
	q := NextGoodFactor(p)
	g, err := New(new(big.Int).Mul(p, q))
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestDeterministic(t *testing.T) {
	a, b := testGenerator(t), testGenerator(t)
	if err := a.Seed(12345); err != nil {
		t.Fatal(err)
	}
	if err := b.SeedBig(big.NewInt(12345)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		ra, err := a.Roll()
		if err != nil {
			t.Fatal(err)
		}
		rb, _ := b.Roll()
		if !ra.Valid() || ra != rb {
			t.Fatalf("roll %d: %v vs %v", i, ra, rb)
		}
	}
}

func TestNewRejectsModulus(t *testing.T) {
	for _, m := range []int64{-21, 0, 1, 2, 438} {
		if _, err := New(big.NewInt(m)); !errors.Is(err, ErrInvalidModulus) {
			t.Errorf("New(%d) error = %v", m, err)
		}
	}
	if _, err := ParseModulus("12x"); !errors.Is(err, ErrInvalidModulus) {
		t.Errorf("ParseModulus error = %v", err)
	}
}

func TestShortCycleFailure(t *testing.T) {
	// Squaring modulo 21 never has a cycle longer than 2.
	g, err := New(big.NewInt(21))
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Seed(5); !errors.Is(err, ErrShortCycle) {
		t.Fatalf("Seed error = %v", err)
	}
	if g.State().Sign() != 0 {
		t.Errorf("seed = %s after failure, want 0", g.State())
	}
	if _, err := g.Roll(); !errors.Is(err, rng.ErrNotReady) {
		t.Errorf("Roll error = %v", err)
	}
}

func TestZeroAndOneAreFaults(t *testing.T) {
	g := testGenerator(t)
	if err := g.Seed(0); !errors.Is(err, ErrBadSeed) {
		t.Errorf("Seed(0) error = %v", err)
	}
	if _, err := g.Roll(); !errors.Is(err, ErrBadSeed) {
		t.Errorf("Roll after zero seed error = %v", err)
	}

	g.seed.SetInt64(1)
	if _, err := g.Roll(); !errors.Is(err, rng.ErrNotReady) {
		t.Errorf("Roll with seed 1 error = %v", err)
	}
	// Reseeding recovers.
	if err := g.Seed(99); err != nil {
		t.Fatal(err)
	}
	if r, err := g.Roll(); err != nil || !r.Valid() {
		t.Errorf("Roll after reseed = %v, %v", r, err)
	}
}

func TestDescribeSeed(t *testing.T) {
	f, _ := ValidateFactors(big.NewInt(1000003), big.NewInt(1000039))
	g, _ := New(f.Modulus())
	g.Seed(42)
	s, err := g.DescribeSeed()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, g.State().String()) || !strings.Contains(s, f.Modulus().String()) {
		t.Errorf("DescribeSeed = %q", s)
	}
}

func TestClone(t *testing.T) {
	g := testGenerator(t)
	g.Seed(777)
	c, _ := g.Clone()
	for i := 0; i < 20; i++ {
		rg, _ := g.Roll()
		rc, _ := c.Roll()
		if rg != rc {
			t.Fatalf("clone diverged at %d", i)
		}
	}
	g.seed.SetInt64(0)
	if _, err := c.Roll(); err != nil {
		t.Errorf("clone shares seed with original: %v", err)
	}
}
