// Package dice routes roll and seed requests to the selected generator
// backend and keeps the usage counter shared by all of them.
package dice

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/tutils/tdice/counter"
	"github.com/tutils/tdice/counter/period"
	"github.com/tutils/tdice/rng"
	"github.com/tutils/tdice/rng/bbs"
	"github.com/tutils/tdice/rng/digest"
	"github.com/tutils/tdice/rng/isaac"
	"github.com/tutils/tdice/rng/manual"
	"github.com/tutils/tdice/rng/mt"
	"github.com/tutils/tdice/rng/netrand"
	"github.com/tutils/tdice/rng/replay"
)

// ErrNoReplayFile means the file backend was selected without a file.
var ErrNoReplayFile = errors.New("dice: no dice file given")

// SystemSeedWords is the number of 32-bit words read from the entropy
// source by SeedSystem.
const SystemSeedWords = 16

const ratePeriod = time.Second

// SystemSeed is the value chosen by SeedSystem.
type SystemSeed struct {
	Value *big.Int
	// Secure reports whether Value came from the entropy source rather
	// than the clock.
	Secure bool
}

// Context owns exactly one active generator. It is not safe for concurrent
// use; see Clone and tdice.SyncRoller.
type Context struct {
	id      uuid.UUID
	opts    Options
	log     *zap.Logger
	kind    rng.Kind
	gen     rng.Generator
	modulus *big.Int
	counter counter.Counter

	// build creates backends; nil means newGenerator.
	build func(rng.Kind) (rng.Generator, error)
}

// New returns a context with kind selected. Seedable kinds start seeded
// from system entropy.
func New(kind rng.Kind, opts ...Option) (*Context, error) {
	opt := newOptions(opts...)
	c := &Context{
		id:      uuid.New(),
		opts:    *opt,
		counter: period.NewPeriodCounter(ratePeriod),
	}
	c.log = opt.logger.With(zap.String("session", c.id.String()))

	switch {
	case opt.factors[0] != nil || opt.factors[1] != nil:
		f, err := c.validateFactors(opt.factors[0], opt.factors[1])
		if err != nil {
			return nil, err
		}
		c.modulus = f.Modulus()
	case opt.modulus != nil:
		if err := checkModulus(opt.modulus); err != nil {
			return nil, err
		}
		c.modulus = new(big.Int).Set(opt.modulus)
	}

	if err := c.Select(kind); err != nil {
		if c.gen != nil {
			c.gen.Close()
		}
		return nil, err
	}
	return c, nil
}

// ID returns the session id used in log entries.
func (c *Context) ID() string { return c.id.String() }

// Kind returns the selected backend.
func (c *Context) Kind() rng.Kind { return c.kind }

// Counter returns the number of dice drawn since the last seed or
// selection.
func (c *Context) Counter() int64 { return c.counter.Value() }

// Rate returns the recent roll rate in dice per second.
func (c *Context) Rate() int64 { return c.counter.RatePerSec() }

// Modulus returns the BBS modulus, or nil if none is set yet.
func (c *Context) Modulus() *big.Int {
	if c.modulus == nil {
		return nil
	}
	return new(big.Int).Set(c.modulus)
}

// Select switches to kind, releasing the previous backend. Seedable kinds
// are seeded from system entropy. On error the previous backend stays
// selected, except for a BBS seeding fault which leaves BBS selected but
// unusable until reseeded.
func (c *Context) Select(kind rng.Kind) error {
	build := c.build
	if build == nil {
		build = c.newGenerator
	}
	gen, err := build(kind)
	if err != nil {
		return err
	}
	if !kind.Seedable() {
		c.replace(kind, gen)
		return nil
	}
	s := c.systemSeed()
	err = gen.SeedBig(s.Value)
	switch {
	case err == nil:
	case errors.Is(err, rng.ErrNotReady):
		c.log.Error("seed generator", zap.Stringer("rng", kind), zap.Error(err))
	default:
		gen.Close()
		return err
	}
	c.replace(kind, gen)
	return err
}

func (c *Context) replace(kind rng.Kind, gen rng.Generator) {
	if c.gen != nil {
		if err := c.gen.Close(); err != nil {
			c.log.Warn("close generator", zap.Stringer("rng", c.kind), zap.Error(err))
		}
	}
	c.kind = kind
	c.gen = gen
	c.counter.Reset()
}

func (c *Context) newGenerator(kind rng.Kind) (rng.Generator, error) {
	switch kind {
	case rng.KindBBS:
		m, err := c.bbsModulus()
		if err != nil {
			return nil, err
		}
		return bbs.New(m)
	case rng.KindISAAC:
		return isaac.New(), nil
	case rng.KindMD5:
		return digest.New(), nil
	case rng.KindMersenne:
		return mt.New(), nil
	case rng.KindManual:
		if c.opts.prompter == nil {
			c.opts.prompter = manual.NewPrompter(os.Stdin, os.Stdout)
		}
		return manual.New(c.opts.prompter), nil
	case rng.KindRandomOrg:
		if c.opts.fetcher == nil {
			c.opts.fetcher = netrand.NewRandomOrg("", netrand.WithLogger(c.log))
		}
		return netrand.New(c.opts.fetcher, netrand.WithLogger(c.log)), nil
	case rng.KindFile:
		if c.opts.replayPath == "" {
			return nil, ErrNoReplayFile
		}
		return replay.Open(c.opts.replayPath, replay.WithLogger(c.log))
	}
	return nil, fmt.Errorf("%w: %v", rng.ErrUnknownKind, kind)
}

func (c *Context) bbsModulus() (*big.Int, error) {
	if c.modulus != nil {
		return c.modulus, nil
	}
	f, err := bbs.RandomFactors(c.opts.entropy, c.opts.factorBits)
	if err != nil {
		return nil, err
	}
	c.modulus = f.Modulus()
	c.log.Debug("generated modulus", zap.Stringer("modulus", c.modulus))
	return c.modulus, nil
}

// Roll draws a pair of dice.
//
// A pair outside [1, 6] or a backend error is a malfunction: the context
// switches to the default backend and rolls once more. Errors wrapping
// rng.ErrNotReady are returned as is.
func (c *Context) Roll() (rng.Roll, error) {
	r, err := c.gen.Roll()
	if err == nil && r.Valid() {
		c.counter.Add(2)
		return r, nil
	}
	if errors.Is(err, rng.ErrNotReady) {
		return rng.Roll{}, err
	}

	c.log.Warn("dice generator is not working, switching to default",
		zap.Stringer("rng", c.kind),
		zap.Stringer("roll", r),
		zap.Stringer("fallback", rng.KindDefault),
		zap.Error(err),
	)
	if serr := c.Select(rng.KindDefault); serr != nil {
		return rng.Roll{}, fmt.Errorf("%w: %v", rng.ErrMalfunction, multierr.Append(err, serr))
	}
	r, err = c.gen.Roll()
	if err != nil || !r.Valid() {
		return rng.Roll{}, fmt.Errorf("%w: %s after fallback", rng.ErrMalfunction, r)
	}
	c.counter.Add(2)
	return r, nil
}

func (c *Context) seeded(err error) error {
	if err != nil {
		c.log.Error("seed generator", zap.Stringer("rng", c.kind), zap.Error(err))
	}
	c.counter.Reset()
	return err
}

// SeedValue seeds the backend from a value in [0, 2^32).
func (c *Context) SeedValue(n int64) error {
	v, err := rng.CheckSeed(n)
	if err != nil {
		return err
	}
	if !c.kind.Seedable() {
		return fmt.Errorf("%w: %s", rng.ErrNotSeedable, c.kind)
	}
	return c.seeded(c.gen.Seed(v))
}

// SeedLarge seeds the backend from an arbitrary precision value.
func (c *Context) SeedLarge(n *big.Int) error {
	if n == nil {
		return fmt.Errorf("%w: missing", rng.ErrInvalidSeed)
	}
	if n.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative", rng.ErrInvalidSeed, n)
	}
	if !c.kind.Seedable() {
		return fmt.Errorf("%w: %s", rng.ErrNotSeedable, c.kind)
	}
	return c.seeded(c.gen.SeedBig(new(big.Int).Set(n)))
}

// SeedText parses a decimal seed and passes it to SeedLarge.
func (c *Context) SeedText(s string) error {
	n, err := rng.ParseSeed(s)
	if err != nil {
		return err
	}
	return c.SeedLarge(n)
}

// SeedSystem seeds the backend from the entropy source, or from the clock
// when that fails, and returns the seed used.
func (c *Context) SeedSystem() (SystemSeed, error) {
	if !c.kind.Seedable() {
		return SystemSeed{}, fmt.Errorf("%w: %s", rng.ErrNotSeedable, c.kind)
	}
	s := c.systemSeed()
	return s, c.seeded(c.gen.SeedBig(new(big.Int).Set(s.Value)))
}

func (c *Context) systemSeed() SystemSeed {
	buf := make([]byte, 4*SystemSeedWords)
	if err := c.readEntropy(buf); err != nil {
		c.log.Warn("entropy source unavailable, seeding from clock", zap.Error(err))
		us := uint64(c.opts.now().UnixMicro())
		return SystemSeed{Value: new(big.Int).SetUint64((us >> 32) ^ (us & 0xffffffff))}
	}
	words := make([]uint32, SystemSeedWords)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	c.log.Debug("seeded from entropy source", zap.String("device", c.opts.entropyDevice))
	return SystemSeed{Value: rng.FromWords(words), Secure: true}
}

func (c *Context) readEntropy(buf []byte) error {
	if c.opts.entropyDevice == "" {
		_, err := io.ReadFull(c.opts.entropy, buf)
		return err
	}
	f, err := os.Open(c.opts.entropyDevice)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.ReadFull(f, buf)
	return err
}

// SeedDisplay describes the current seed.
func (c *Context) SeedDisplay() (string, error) {
	return c.gen.DescribeSeed()
}

// CounterDisplay describes the usage counter in the terms of the backend.
func (c *Context) CounterDisplay() string {
	n := c.counter.Value()
	switch c.kind {
	case rng.KindRandomOrg:
		return fmt.Sprintf("Number of dice used in current batch: %d.", n)
	case rng.KindFile:
		return fmt.Sprintf("Number of dice read from current file: %d.", n)
	case rng.KindManual:
		return fmt.Sprintf("Number of dice entered by hand: %d.", n)
	}
	return fmt.Sprintf("Number of calls since last seed: %d.", n)
}

func checkModulus(m *big.Int) error {
	_, err := bbs.New(m)
	return err
}

// SetModulus sets the BBS modulus. If BBS is selected it is reinitialized
// and seeded from system entropy.
func (c *Context) SetModulus(m *big.Int) error {
	if err := checkModulus(m); err != nil {
		return err
	}
	prev := c.modulus
	c.modulus = new(big.Int).Set(m)
	if c.kind != rng.KindBBS {
		return nil
	}
	err := c.Select(rng.KindBBS)
	if err != nil && !errors.Is(err, rng.ErrNotReady) {
		c.modulus = prev
	}
	return err
}

// SetModulusText parses a decimal modulus and passes it to SetModulus.
func (c *Context) SetModulusText(s string) error {
	m, err := bbs.ParseModulus(s)
	if err != nil {
		return err
	}
	return c.SetModulus(m)
}

func (c *Context) validateFactors(p, q *big.Int) (bbs.Factors, error) {
	f, err := bbs.ValidateFactors(p, q)
	if err != nil {
		return f, err
	}
	if f.PReplaced {
		c.log.Warn("invalid Blum factor replaced", zap.Stringer("factor", p), zap.Stringer("using", f.P))
	}
	if f.QReplaced {
		c.log.Warn("invalid Blum factor replaced", zap.Stringer("factor", q), zap.Stringer("using", f.Q))
	}
	return f, nil
}

// SetFactors sets the BBS modulus to the product of two Blum factors,
// replacing bad factors with the next good ones. The factors used are
// returned.
func (c *Context) SetFactors(p, q *big.Int) (bbs.Factors, error) {
	f, err := c.validateFactors(p, q)
	if err != nil {
		return f, err
	}
	return f, c.SetModulus(f.Modulus())
}

// SetFactorsText parses two decimal factors and passes them to SetFactors.
func (c *Context) SetFactorsText(p, q string) (bbs.Factors, error) {
	bp, err := bbs.ParseFactor(p)
	if err != nil {
		return bbs.Factors{}, err
	}
	bq, err := bbs.ParseFactor(q)
	if err != nil {
		return bbs.Factors{}, err
	}
	return c.SetFactors(bp, bq)
}

// OpenReplay selects the file backend reading from path. On error the
// current backend stays selected.
func (c *Context) OpenReplay(path string) error {
	gen, err := replay.Open(path, replay.WithLogger(c.log))
	if err != nil {
		return err
	}
	c.opts.replayPath = path
	c.replace(rng.KindFile, gen)
	return nil
}

// Clone returns an independent copy that continues from the same state.
func (c *Context) Clone() (*Context, error) {
	gen, err := c.gen.Clone()
	if err != nil {
		return nil, err
	}
	cc := &Context{
		id:      uuid.New(),
		opts:    c.opts,
		kind:    c.kind,
		gen:     gen,
		modulus: c.Modulus(),
		counter: period.NewPeriodCounter(ratePeriod),
	}
	cc.log = c.opts.logger.With(zap.String("session", cc.id.String()))
	cc.counter.Add(c.counter.Value())
	return cc, nil
}

// Close releases the backend and the network fetcher.
func (c *Context) Close() error {
	var err error
	if c.gen != nil {
		err = multierr.Append(err, c.gen.Close())
	}
	if cl, ok := c.opts.fetcher.(io.Closer); ok && c.kind != rng.KindRandomOrg {
		err = multierr.Append(err, cl.Close())
	}
	return err
}
