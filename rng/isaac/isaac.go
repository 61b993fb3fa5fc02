// Package isaac implements Bob Jenkins' ISAAC stream generator as a dice
// backend.
package isaac

import (
	"math/big"

	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/uniform"
)

const (
	sizeL = 8
	// Size is the number of 32-bit words in the seed and result arrays.
	Size = 1 << sizeL
)

const golden = 0x9e3779b9

var _ rng.Generator = (*Generator)(nil)
var _ uniform.Source32 = (*Source)(nil)

// Source is the ISAAC state.
type Source struct {
	rsl     [Size]uint32
	mem     [Size]uint32
	a, b, c uint32
	cnt     int
}

// SeedArray initializes the state from up to Size words; missing words are
// zero.
func (s *Source) SeedArray(key []uint32) {
	s.rsl = [Size]uint32{}
	copy(s.rsl[:], key)
	s.init(true)
}

// SeedFill initializes the state with every seed word set to n.
func (s *Source) SeedFill(n uint32) {
	for i := range s.rsl {
		s.rsl[i] = n
	}
	s.init(true)
}

// Uint32 returns the next output word.
func (s *Source) Uint32() uint32 {
	if s.cnt == 0 {
		s.isaac()
		s.cnt = Size
	}
	s.cnt--
	return s.rsl[s.cnt]
}

func (s *Source) isaac() {
	s.c++
	s.b += s.c
	for i := 0; i < Size; i++ {
		x := s.mem[i]
		switch i & 3 {
		case 0:
			s.a ^= s.a << 13
		case 1:
			s.a ^= s.a >> 6
		case 2:
			s.a ^= s.a << 2
		case 3:
			s.a ^= s.a >> 16
		}
		s.a += s.mem[(i+Size/2)&(Size-1)]
		y := s.mem[(x>>2)&(Size-1)] + s.a + s.b
		s.mem[i] = y
		s.b = s.mem[(y>>(sizeL+2))&(Size-1)] + x
		s.rsl[i] = s.b
	}
}

type mixer [8]uint32

func (m *mixer) mix() {
	m[0] ^= m[1] << 11
	m[3] += m[0]
	m[1] += m[2]
	m[1] ^= m[2] >> 2
	m[4] += m[1]
	m[2] += m[3]
	m[2] ^= m[3] << 8
	m[5] += m[2]
	m[3] += m[4]
	m[3] ^= m[4] >> 16
	m[6] += m[3]
	m[4] += m[5]
	m[4] ^= m[5] << 10
	m[7] += m[4]
	m[5] += m[6]
	m[5] ^= m[6] >> 4
	m[0] += m[5]
	m[6] += m[7]
	m[6] ^= m[7] << 8
	m[1] += m[6]
	m[7] += m[0]
	m[7] ^= m[0] >> 9
	m[2] += m[7]
	m[0] += m[1]
}

func (s *Source) init(useSeed bool) {
	s.a, s.b, s.c = 0, 0, 0
	m := mixer{golden, golden, golden, golden, golden, golden, golden, golden}
	for i := 0; i < 4; i++ {
		m.mix()
	}
	for i := 0; i < Size; i += 8 {
		if useSeed {
			for j := range m {
				m[j] += s.rsl[i+j]
			}
		}
		m.mix()
		copy(s.mem[i:i+8], m[:])
	}
	if useSeed {
		for i := 0; i < Size; i += 8 {
			for j := range m {
				m[j] += s.mem[i+j]
			}
			m.mix()
			copy(s.mem[i:i+8], m[:])
		}
	}
	s.isaac()
	s.cnt = Size
}

// Generator rolls dice from an ISAAC stream.
type Generator struct {
	src  Source
	seed *big.Int
}

// New returns a generator seeded with 0.
func New() *Generator {
	g := &Generator{seed: new(big.Int)}
	g.src.SeedFill(0)
	return g
}

func (g *Generator) Kind() rng.Kind { return rng.KindISAAC }

func (g *Generator) Roll() (rng.Roll, error) {
	return rng.Roll{uniform.Die(&g.src), uniform.Die(&g.src)}, nil
}

// Seed copies n into every word of the seed array.
func (g *Generator) Seed(n uint32) error {
	g.src.SeedFill(n)
	g.seed.SetUint64(uint64(n))
	return nil
}

// SeedBig spreads n over the seed array, least significant word first.
// Words beyond Size are ignored.
func (g *Generator) SeedBig(n *big.Int) error {
	if n.Sign() < 0 {
		return rng.ErrInvalidSeed
	}
	g.src.SeedArray(rng.Words(n))
	g.seed.Set(n)
	return nil
}

func (g *Generator) DescribeSeed() (string, error) {
	return rng.SeedText(g.seed), nil
}

func (g *Generator) Clone() (rng.Generator, error) {
	return &Generator{src: g.src, seed: new(big.Int).Set(g.seed)}, nil
}

func (g *Generator) Close() error { return nil }
