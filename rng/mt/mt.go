// Package mt implements the MT19937 Mersenne Twister dice generator.
package mt

import (
	"math"
	"math/big"

	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/uniform"
)

// N is the state size in 32-bit words.
const N = 624

const (
	m         = 397
	matrixA   = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
)

var _ rng.Generator = (*Generator)(nil)
var _ uniform.Source32 = (*Source)(nil)

// Source is the raw MT19937 state.
type Source struct {
	mt  [N]uint32
	mti int
}

// NewSource returns a source seeded with s.
func NewSource(s uint32) *Source {
	src := &Source{}
	src.Seed(s)
	return src
}

// Seed implements init_genrand.
func (s *Source) Seed(seed uint32) {
	s.mt[0] = seed
	for i := 1; i < N; i++ {
		s.mt[i] = 1812433253*(s.mt[i-1]^(s.mt[i-1]>>30)) + uint32(i)
	}
	s.mti = N
}

// SeedArray implements init_by_array.
func (s *Source) SeedArray(key []uint32) {
	s.Seed(19650218)
	if len(key) == 0 {
		return
	}
	i, j := 1, 0
	k := N
	if len(key) > k {
		k = len(key)
	}
	for ; k > 0; k-- {
		s.mt[i] = (s.mt[i] ^ ((s.mt[i-1] ^ (s.mt[i-1] >> 30)) * 1664525)) + key[j] + uint32(j)
		i++
		j++
		if i >= N {
			s.mt[0] = s.mt[N-1]
			i = 1
		}
		if j >= len(key) {
			j = 0
		}
	}
	for k = N - 1; k > 0; k-- {
		s.mt[i] = (s.mt[i] ^ ((s.mt[i-1] ^ (s.mt[i-1] >> 30)) * 1566083941)) - uint32(i)
		i++
		if i >= N {
			s.mt[0] = s.mt[N-1]
			i = 1
		}
	}
	s.mt[0] = 0x80000000
	s.mti = N
}

// Uint32 implements genrand_int32.
func (s *Source) Uint32() uint32 {
	if s.mti >= N {
		s.generate()
	}
	y := s.mt[s.mti]
	s.mti++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func (s *Source) generate() {
	var y uint32
	kk := 0
	for ; kk < N-m; kk++ {
		y = (s.mt[kk] & upperMask) | (s.mt[kk+1] & lowerMask)
		s.mt[kk] = s.mt[kk+m] ^ (y >> 1) ^ mag01(y)
	}
	for ; kk < N-1; kk++ {
		y = (s.mt[kk] & upperMask) | (s.mt[kk+1] & lowerMask)
		s.mt[kk] = s.mt[kk+(m-N)] ^ (y >> 1) ^ mag01(y)
	}
	y = (s.mt[N-1] & upperMask) | (s.mt[0] & lowerMask)
	s.mt[N-1] = s.mt[m-1] ^ (y >> 1) ^ mag01(y)
	s.mti = 0
}

func mag01(y uint32) uint32 {
	if y&1 == 0 {
		return 0
	}
	return matrixA
}

// Generator rolls dice from a Mersenne Twister.
type Generator struct {
	src  Source
	seed *big.Int
}

// New returns a generator seeded with 0. Callers reseed before use.
func New() *Generator {
	g := &Generator{seed: new(big.Int)}
	g.src.Seed(0)
	return g
}

func (g *Generator) Kind() rng.Kind { return rng.KindMersenne }

func (g *Generator) Roll() (rng.Roll, error) {
	return rng.Roll{uniform.Die(&g.src), uniform.Die(&g.src)}, nil
}

func (g *Generator) Seed(n uint32) error {
	g.src.Seed(n)
	g.seed.SetUint64(uint64(n))
	return nil
}

// SeedBig seeds from n. Values wider than 32 bits fill the full key array
// instead of being truncated.
func (g *Generator) SeedBig(n *big.Int) error {
	if n.Sign() < 0 {
		return rng.ErrInvalidSeed
	}
	if n.Cmp(big.NewInt(math.MaxUint32)) <= 0 {
		g.src.Seed(uint32(n.Uint64()))
	} else {
		var key [N]uint32
		copy(key[:], rng.Words(n))
		g.src.SeedArray(key[:])
	}
	g.seed.Set(n)
	return nil
}

func (g *Generator) DescribeSeed() (string, error) {
	return rng.SeedText(g.seed), nil
}

func (g *Generator) Clone() (rng.Generator, error) {
	c := &Generator{src: g.src, seed: new(big.Int).Set(g.seed)}
	return c, nil
}

func (g *Generator) Close() error { return nil }
