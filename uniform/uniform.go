// Package uniform maps raw 32-bit generator output onto a bounded range
// without modulo bias.
package uniform

// Faces is the number of sides of a die.
const Faces = 6

// Rejection constants for a six-sided die.
const (
	DieQuotient = (1 << 32) / Faces  // 715827882
	DieLimit    = DieQuotient * Faces // 4294967292
)

// Source32 produces uniformly distributed 32-bit values.
type Source32 interface {
	Uint32() uint32
}

// Accept maps raw onto [1, r]. It reports false when raw falls in the
// rejected tail and must be redrawn.
func Accept(raw uint32, r uint32) (uint32, bool) {
	if r == 0 {
		return 0, false
	}
	q := uint64(1<<32) / uint64(r)
	if uint64(raw) >= q*uint64(r) {
		return 0, false
	}
	return 1 + uint32(uint64(raw)/q), true
}

// Bounded draws from next until a value is accepted for range r and returns
// it in [1, r]. r must be positive.
func Bounded(next func() uint32, r uint32) uint32 {
	if r == 0 {
		panic("uniform: Bounded called with r == 0")
	}
	for {
		if v, ok := Accept(next(), r); ok {
			return v
		}
	}
}

// Die returns a face in [1, 6] drawn from src.
func Die(src Source32) int {
	return int(Bounded(src.Uint32, Faces))
}
