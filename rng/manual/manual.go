// Package manual implements a dice backend whose rolls are entered by hand.
package manual

import (
	"errors"
	"math/big"

	"github.com/tutils/tdice/rng"
)

// Prompter supplies dice read from outside the program. Implementations
// only return pairs in [1, 6].
type Prompter interface {
	Dice() (rng.Roll, error)
}

// ErrNoPrompter is returned when rolling without a Prompter.
var ErrNoPrompter = errors.New("manual: no dice prompter configured")

var _ rng.Generator = (*Generator)(nil)

// Generator delegates every roll to a Prompter.
type Generator struct {
	p Prompter
}

// New returns a generator reading from p.
func New(p Prompter) *Generator {
	return &Generator{p: p}
}

func (g *Generator) Kind() rng.Kind { return rng.KindManual }

func (g *Generator) Roll() (rng.Roll, error) {
	if g.p == nil {
		return rng.Roll{}, ErrNoPrompter
	}
	return g.p.Dice()
}

// Seed is a no-op.
func (g *Generator) Seed(uint32) error { return nil }

// SeedBig is a no-op.
func (g *Generator) SeedBig(*big.Int) error { return nil }

func (g *Generator) DescribeSeed() (string, error) {
	return "", rng.ErrSeedUnavailable
}

// Clone shares the prompter.
func (g *Generator) Clone() (rng.Generator, error) {
	return &Generator{p: g.p}, nil
}

func (g *Generator) Close() error { return nil }
