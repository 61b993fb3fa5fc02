package dice

import (
	"crypto/rand"
	"io"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/tutils/tdice/rng/manual"
	"github.com/tutils/tdice/rng/netrand"
)

// DefaultFactorBits is the size of each Blum factor derived from entropy
// when BBS is selected without a modulus.
const DefaultFactorBits = 128

// Options holds the collaborators and configuration of a Context.
type Options struct {
	logger        *zap.Logger
	modulus       *big.Int
	factors       [2]*big.Int
	replayPath    string
	prompter      manual.Prompter
	fetcher       netrand.Fetcher
	entropy       io.Reader
	entropyDevice string
	factorBits    int
	now           func() time.Time
}

// Option is option setter for Context
type Option func(*Options)

func newOptions(opts ...Option) *Options {
	opt := &Options{}
	for _, o := range opts {
		o(opt)
	}

	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}
	if opt.entropy == nil {
		opt.entropy = rand.Reader
	}
	if opt.factorBits == 0 {
		opt.factorBits = DefaultFactorBits
	}
	if opt.now == nil {
		opt.now = time.Now
	}

	return opt
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(opts *Options) {
		opts.logger = l
	}
}

// WithModulus sets the BBS modulus.
func WithModulus(m *big.Int) Option {
	return func(opts *Options) {
		opts.modulus = m
	}
}

// WithFactors sets the BBS modulus from two Blum factors. Bad factors are
// replaced by the next good ones.
func WithFactors(p, q *big.Int) Option {
	return func(opts *Options) {
		opts.factors = [2]*big.Int{p, q}
	}
}

// WithReplayFile sets the file read by the file backend.
func WithReplayFile(path string) Option {
	return func(opts *Options) {
		opts.replayPath = path
	}
}

// WithPrompter sets the source of manually entered dice. The default reads
// from the process terminal.
func WithPrompter(p manual.Prompter) Option {
	return func(opts *Options) {
		opts.prompter = p
	}
}

// WithFetcher sets the network entropy source. The default is random.org.
func WithFetcher(f netrand.Fetcher) Option {
	return func(opts *Options) {
		opts.fetcher = f
	}
}

// WithEntropy sets the secure entropy source used for system seeding and
// BBS factor generation.
func WithEntropy(r io.Reader) Option {
	return func(opts *Options) {
		opts.entropy = r
	}
}

// WithEntropyDevice makes system seeding read from a device path such as
// /dev/urandom instead of the entropy reader.
func WithEntropyDevice(path string) Option {
	return func(opts *Options) {
		opts.entropyDevice = path
	}
}

// WithFactorBits sets the size of generated BBS factors.
func WithFactorBits(bits int) Option {
	return func(opts *Options) {
		opts.factorBits = bits
	}
}

// WithClock sets the time source used by the time-derived seed.
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		opts.now = now
	}
}
