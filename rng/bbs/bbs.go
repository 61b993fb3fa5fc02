// Package bbs implements the Blum, Blum and Shub dice generator.
//
// The generator squares its seed modulo a Blum integer and uses the least
// significant bit of each result as one hard-core bit. Faces are assembled
// from a base-3 digit and one further bit, so no output is ever biased
// towards particular faces.
package bbs

import (
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/tutils/tdice/rng"
)

const (
	// MinFactor is the smallest acceptable Blum factor.
	MinFactor = 19
	// PrimeRounds is the number of Miller-Rabin rounds used to test factors.
	PrimeRounds = 10

	warmup      = 8
	minCycle    = 16
	maxAttempts = 32
)

var (
	ErrInvalidFactor  = errors.New("bbs: factors must be positive integers")
	ErrInvalidModulus = errors.New("bbs: modulus must be an odd integer greater than 1")

	ErrNoModulus  = fmt.Errorf("bbs: no modulus set: %w", rng.ErrNotReady)
	ErrBadSeed    = fmt.Errorf("bbs: invalid seed and/or modulus, reset them before continuing: %w", rng.ErrNotReady)
	ErrShortCycle = fmt.Errorf("bbs: no seed with an adequate cycle length found: %w", rng.ErrNotReady)
)

var (
	one       = big.NewInt(1)
	three     = big.NewInt(3)
	minFactor = big.NewInt(MinFactor)
)

// IsGoodFactor reports whether x is a usable Blum factor: at least
// MinFactor, congruent to 3 mod 4 and probably prime.
func IsGoodFactor(x *big.Int) bool {
	if x.Cmp(minFactor) < 0 {
		return false
	}
	if x.Bit(0) != 1 || x.Bit(1) != 1 {
		return false
	}
	return x.ProbablyPrime(PrimeRounds)
}

// NextGoodFactor returns the smallest good factor strictly greater than x.
func NextGoodFactor(x *big.Int) *big.Int {
	n := new(big.Int).Add(x, one)
	if n.Cmp(minFactor) < 0 {
		n.Set(minFactor)
	}
	// Jump to the next value congruent to 3 mod 4.
	r := new(big.Int).And(n, three).Int64()
	n.Add(n, big.NewInt((3-r+4)%4))
	step := big.NewInt(4)
	for !IsGoodFactor(n) {
		n.Add(n, step)
	}
	return n
}

// Factors is a validated pair of Blum factors.
type Factors struct {
	P, Q *big.Int

	// PReplaced and QReplaced report that the supplied value was not a good
	// factor and the next good one was used instead.
	PReplaced, QReplaced bool
}

// Modulus returns P*Q.
func (f Factors) Modulus() *big.Int {
	return new(big.Int).Mul(f.P, f.Q)
}

// ValidateFactors checks p and q, replacing each bad one with the next good
// factor above it. Q is searched again if it ends up equal to P.
func ValidateFactors(p, q *big.Int) (Factors, error) {
	if p == nil || q == nil || p.Sign() < 1 || q.Sign() < 1 {
		return Factors{}, ErrInvalidFactor
	}
	f := Factors{P: new(big.Int).Set(p), Q: new(big.Int).Set(q)}
	if !IsGoodFactor(f.P) {
		f.P = NextGoodFactor(f.P)
		f.PReplaced = true
	}
	if !IsGoodFactor(f.Q) || f.Q.Cmp(f.P) == 0 {
		f.Q = NextGoodFactor(f.Q)
		if f.Q.Cmp(f.P) == 0 {
			f.Q = NextGoodFactor(f.Q)
		}
		f.QReplaced = true
	}
	return f, nil
}

// ParseFactor parses a decimal factor without validating it.
func ParseFactor(s string) (*big.Int, error) {
	f, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFactor, s)
	}
	return f, nil
}

// ParseFactors parses two decimal factors and validates them.
func ParseFactors(p, q string) (Factors, error) {
	bp, err := ParseFactor(p)
	if err != nil {
		return Factors{}, err
	}
	bq, err := ParseFactor(q)
	if err != nil {
		return Factors{}, err
	}
	return ValidateFactors(bp, bq)
}

// RandomFactors derives two distinct good factors of the given bit size
// from r.
func RandomFactors(r io.Reader, bits int) (Factors, error) {
	if bits < 8 {
		return Factors{}, fmt.Errorf("bbs: factor size %d bits too small", bits)
	}
	candidate := func() (*big.Int, error) {
		buf := make([]byte, (bits+7)/8)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("bbs: read factor entropy: %w", err)
		}
		n := new(big.Int).SetBytes(buf)
		n.SetBit(n, bits-1, 1)
		return n, nil
	}
	p, err := candidate()
	if err != nil {
		return Factors{}, err
	}
	q, err := candidate()
	if err != nil {
		return Factors{}, err
	}
	f, err := ValidateFactors(p, q)
	if err != nil {
		return Factors{}, err
	}
	f.PReplaced, f.QReplaced = false, false
	return f, nil
}

// Trit returns a digit uniformly distributed over {0, 1, 2}, consuming
// fair bits from bit one at a time.
func Trit(bit func() uint) uint {
	state := 0
	for {
		b := bit()
		switch state {
		case 0:
			state = 1 + int(b)
		case 1:
			if b == 0 {
				return 0
			}
			state = 3
		case 2:
			if b == 1 {
				return 2
			}
			state = 4
		case 3:
			if b == 1 {
				return 1
			}
			state = 1
		case 4:
			if b == 0 {
				return 1
			}
			state = 2
		}
	}
}

// Face combines a trit and one further bit into a face in [1, 6].
func Face(bit func() uint) int {
	t := Trit(bit)
	return int(t+3*bit()) + 1
}

var _ rng.Generator = (*Generator)(nil)

// Generator holds the modulus and the running seed.
type Generator struct {
	modulus *big.Int
	seed    *big.Int
}

// New returns a generator for modulus. It must be seeded before use.
func New(modulus *big.Int) (*Generator, error) {
	if modulus == nil || modulus.Cmp(three) < 0 || modulus.Bit(0) == 0 {
		return nil, ErrInvalidModulus
	}
	return &Generator{
		modulus: new(big.Int).Set(modulus),
		seed:    new(big.Int),
	}, nil
}

// ParseModulus parses a decimal modulus.
func ParseModulus(s string) (*big.Int, error) {
	m, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidModulus, s)
	}
	if m.Cmp(three) < 0 || m.Bit(0) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModulus, s)
	}
	return m, nil
}

func (g *Generator) Kind() rng.Kind { return rng.KindBBS }

// Modulus returns a copy of the modulus.
func (g *Generator) Modulus() *big.Int {
	return new(big.Int).Set(g.modulus)
}

// State returns a copy of the current seed.
func (g *Generator) State() *big.Int {
	return new(big.Int).Set(g.seed)
}

func (g *Generator) square(z *big.Int) {
	z.Mul(z, z)
	z.Mod(z, g.modulus)
}

// Bit advances the seed and returns its least significant bit.
func (g *Generator) Bit() uint {
	g.square(g.seed)
	return g.seed.Bit(0)
}

// Ready reports whether the seed is usable. Seeds 0 and 1 are fixed points
// of squaring.
func (g *Generator) Ready() bool {
	return g.seed.Cmp(one) > 0
}

func (g *Generator) Roll() (rng.Roll, error) {
	if !g.Ready() {
		g.seed.SetInt64(0)
		return rng.Roll{}, ErrBadSeed
	}
	return rng.Roll{Face(g.Bit), Face(g.Bit)}, nil
}

func (g *Generator) Seed(n uint32) error {
	return g.SeedBig(new(big.Int).SetUint64(uint64(n)))
}

// SeedBig sets the seed to n mod modulus and verifies it does not fall into
// a short cycle. A seed in a short cycle is advanced until one is found;
// if none is, the generator is left unusable and ErrShortCycle returned.
func (g *Generator) SeedBig(n *big.Int) error {
	if n.Sign() < 0 {
		return rng.ErrInvalidSeed
	}
	g.seed.Mod(n, g.modulus)
	return g.checkInitialSeed()
}

func (g *Generator) checkInitialSeed() error {
	if g.seed.Sign() < 1 {
		g.seed.SetInt64(0)
		return ErrBadSeed
	}
	z := new(big.Int)
	ref := new(big.Int)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		z.Set(g.seed)
		for i := 0; i < warmup; i++ {
			g.square(z)
		}
		ref.Set(z)
		short := false
		for i := 0; i < minCycle; i++ {
			g.square(z)
			if z.Cmp(ref) == 0 {
				short = true
				break
			}
		}
		if !short {
			return nil
		}
		g.seed.Add(g.seed, one)
		g.seed.Mod(g.seed, g.modulus)
	}
	g.seed.SetInt64(0)
	return ErrShortCycle
}

// DescribeSeed returns the running seed and the modulus.
func (g *Generator) DescribeSeed() (string, error) {
	return fmt.Sprintf("The current seed is %s, and the modulus is %s.", g.seed, g.modulus), nil
}

func (g *Generator) Clone() (rng.Generator, error) {
	return &Generator{
		modulus: new(big.Int).Set(g.modulus),
		seed:    new(big.Int).Set(g.seed),
	}, nil
}

func (g *Generator) Close() error { return nil }
