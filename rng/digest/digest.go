// Package digest implements the MD5 counter dice generator.
package digest

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/uniform"
)

var _ rng.Generator = (*Generator)(nil)

// Generator hashes a 32-bit counter and splits the digest into two raw
// die values.
type Generator struct {
	n uint32
}

// New returns a generator with counter 0.
func New() *Generator {
	return &Generator{}
}

func (g *Generator) Kind() rng.Kind { return rng.KindMD5 }

func (g *Generator) hash() (uint32, uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], g.n)
	sum := md5.Sum(buf[:])
	return binary.LittleEndian.Uint32(sum[0:4]), binary.LittleEndian.Uint32(sum[4:8])
}

// Roll hashes the counter. A rejected half rehashes and then advances the
// counter, so a rejection costs one extra counter value.
func (g *Generator) Roll() (rng.Roll, error) {
	h0, h1 := g.hash()
	for h0 >= uniform.DieLimit || h1 >= uniform.DieLimit {
		h0, h1 = g.hash()
		g.n++
	}
	g.n++
	return rng.Roll{
		int(h0/uniform.DieQuotient) + 1,
		int(h1/uniform.DieQuotient) + 1,
	}, nil
}

func (g *Generator) Seed(n uint32) error {
	g.n = n
	return nil
}

// SeedBig reduces n modulo MaxUint32.
func (g *Generator) SeedBig(n *big.Int) error {
	if n.Sign() < 0 {
		return rng.ErrInvalidSeed
	}
	r := new(big.Int).Mod(n, big.NewInt(math.MaxUint32))
	g.n = uint32(r.Uint64())
	return nil
}

func (g *Generator) DescribeSeed() (string, error) {
	return fmt.Sprintf("The current seed is %d.", g.n), nil
}

func (g *Generator) Clone() (rng.Generator, error) {
	c := *g
	return &c, nil
}

func (g *Generator) Close() error { return nil }
