// Package rng defines the contract shared by every dice generator backend.
package rng

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Kind identifies a generator backend.
type Kind int

const (
	KindBBS Kind = iota
	KindISAAC
	KindMD5
	KindMersenne
	KindManual
	KindRandomOrg
	KindFile

	numKinds
)

// KindDefault is the backend that is always available and used as fallback.
const KindDefault = KindMersenne

var kindNames = [numKinds]string{
	KindBBS:       "bbs",
	KindISAAC:     "isaac",
	KindMD5:       "md5",
	KindMersenne:  "mersenne",
	KindManual:    "manual",
	KindRandomOrg: "random.org",
	KindFile:      "file",
}

var kindDescriptions = [numKinds]string{
	KindBBS:       "Blum, Blum and Shub's verifiably strong generator",
	KindISAAC:     "Bob Jenkins' Indirection, Shift, Accumulate, Add and Count cryptographic generator",
	KindMD5:       "A generator based on the Message Digest 5 algorithm",
	KindMersenne:  "Makoto Matsumoto and Takuji Nishimura's generator",
	KindManual:    "Enter each dice roll by hand",
	KindRandomOrg: "The online non-deterministic generator from random.org",
	KindFile:      "Dice loaded from a file",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Description returns a one-line human description of the backend.
func (k Kind) Description() string {
	if k < 0 || k >= numKinds {
		return ""
	}
	return kindDescriptions[k]
}

// Seedable reports whether seeding changes the backend's output.
func (k Kind) Seedable() bool {
	switch k {
	case KindBBS, KindISAAC, KindMD5, KindMersenne:
		return true
	}
	return false
}

// Kinds returns all backends in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		ks = append(ks, k)
	}
	return ks
}

// ParseKind looks up a backend by name. Matching ignores case and accepts a
// few common aliases.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "blum", "blumblumshub":
		return KindBBS, nil
	case "mt", "mt19937", "mersennetwister", "mersenne-twister":
		return KindMersenne, nil
	case "randomorg", "random_org", "www.random.org", "network":
		return KindRandomOrg, nil
	case "dicefile", "replay":
		return KindFile, nil
	}
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var (
	// ErrUnknownKind is returned by ParseKind for unrecognised names.
	ErrUnknownKind = errors.New("rng: unknown generator")
	// ErrInvalidSeed means a seed was negative, out of range or not a number.
	ErrInvalidSeed = errors.New("rng: invalid seed")
	// ErrNotReady means the generator cannot produce dice until reconfigured
	// or reseeded.
	ErrNotReady = errors.New("rng: generator not ready")
	// ErrMalfunction means the generator produced dice outside [1, 6].
	ErrMalfunction = errors.New("rng: dice generator is not working")
	// ErrSeedUnavailable means the backend has no seed to show.
	ErrSeedUnavailable = errors.New("rng: cannot show the seed with this generator")
	// ErrNotSeedable means the backend ignores seeds.
	ErrNotSeedable = errors.New("rng: generator cannot be seeded")
)

// Roll is an ordered pair of die faces.
type Roll [2]int

// Valid reports whether both faces are in [1, 6].
func (r Roll) Valid() bool {
	return r[0] >= 1 && r[0] <= 6 && r[1] >= 1 && r[1] <= 6
}

func (r Roll) String() string {
	return fmt.Sprintf("%d %d", r[0], r[1])
}

// Generator is one backend's state.
//
// Implementations mutate their state in place and are not safe for
// concurrent use.
type Generator interface {
	Kind() Kind

	// Roll draws one pair of faces. A pair outside [1, 6] or an error not
	// wrapping ErrNotReady means the generator malfunctioned.
	Roll() (Roll, error)

	// Seed initializes the state from a 32-bit value.
	Seed(n uint32) error

	// SeedBig initializes the state from an arbitrary precision value. The
	// value is never negative.
	SeedBig(n *big.Int) error

	// DescribeSeed returns the seed in decimal for display.
	DescribeSeed() (string, error)

	// Clone returns an independent deep copy.
	Clone() (Generator, error)

	Close() error
}

// ParseSeed parses a non-negative decimal seed.
func ParseSeed(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidSeed, s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidSeed, s)
	}
	return n, nil
}

// CheckSeed validates a bounded seed.
func CheckSeed(n int64) (uint32, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidSeed, n)
	}
	if n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrInvalidSeed, n, uint32(math.MaxUint32))
	}
	return uint32(n), nil
}

// Words splits n into little-endian 32-bit words, least significant first.
// Zero yields no words.
func Words(n *big.Int) []uint32 {
	var words []uint32
	mask := big.NewInt(math.MaxUint32)
	x := new(big.Int).Set(n)
	w := new(big.Int)
	for x.Sign() > 0 {
		words = append(words, uint32(w.And(x, mask).Uint64()))
		x.Rsh(x, 32)
	}
	return words
}

// FromWords assembles little-endian 32-bit words into a big integer.
func FromWords(words []uint32) *big.Int {
	n := new(big.Int)
	w := new(big.Int)
	for i := len(words) - 1; i >= 0; i-- {
		n.Lsh(n, 32)
		n.Or(n, w.SetUint64(uint64(words[i])))
	}
	return n
}

// SeedText formats a seed for display.
func SeedText(n *big.Int) string {
	return fmt.Sprintf("The current seed is %s.", n.String())
}
