// Package netrand implements a dice backend that fetches each die from an
// external entropy service.
package netrand

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tutils/tdice/rng"
)

// Fetcher returns one die face from an external source. A non-positive
// value or an error means the fetch failed.
type Fetcher interface {
	Fetch() (int, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func() (int, error)

func (f FetcherFunc) Fetch() (int, error) { return f() }

var _ rng.Generator = (*Generator)(nil)

// Generator issues one fetch per die.
type Generator struct {
	f   Fetcher
	log *zap.Logger
}

// New returns a generator using f.
func New(f Fetcher, opts ...Option) *Generator {
	o := newOptions(opts...)
	return &Generator{f: f, log: o.logger}
}

func (g *Generator) Kind() rng.Kind { return rng.KindRandomOrg }

func (g *Generator) fetch() int {
	n, err := g.f.Fetch()
	if err != nil {
		g.log.Warn("fetch die", zap.Error(err))
		return 0
	}
	return n
}

// Roll fetches the first die and, only if that succeeded, the second. A
// failed first fetch is duplicated into the second die.
func (g *Generator) Roll() (rng.Roll, error) {
	var r rng.Roll
	r[0] = g.fetch()
	if r[0] > 0 {
		r[1] = g.fetch()
	} else {
		r[1] = r[0]
	}
	return r, nil
}

// Seed is a no-op.
func (g *Generator) Seed(uint32) error { return nil }

// SeedBig is a no-op.
func (g *Generator) SeedBig(*big.Int) error { return nil }

func (g *Generator) DescribeSeed() (string, error) {
	return "", rng.ErrSeedUnavailable
}

// Clone shares the fetcher.
func (g *Generator) Clone() (rng.Generator, error) {
	return &Generator{f: g.f, log: g.log}, nil
}

// Close closes the fetcher if it holds resources.
func (g *Generator) Close() error {
	if c, ok := g.f.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DefaultRandomOrgURL is the random.org plain-text integer generator.
const DefaultRandomOrgURL = "https://www.random.org/integers/"

var _ Fetcher = (*RandomOrg)(nil)

// RandomOrg fetches single dice from the random.org integer API.
type RandomOrg struct {
	base   string
	client *http.Client
}

// NewRandomOrg returns a fetcher for the API at base; an empty base uses
// DefaultRandomOrgURL.
func NewRandomOrg(base string, opts ...Option) *RandomOrg {
	o := newOptions(opts...)
	if base == "" {
		base = DefaultRandomOrgURL
	}
	return &RandomOrg{base: base, client: o.client}
}

var errBadResponse = errors.New("netrand: unexpected response")

func (f *RandomOrg) Fetch() (int, error) {
	q := url.Values{
		"num":    {"1"},
		"min":    {"1"},
		"max":    {"6"},
		"col":    {"1"},
		"base":   {"10"},
		"format": {"plain"},
		"rnd":    {"new"},
	}
	resp, err := f.client.Get(f.base + "?" + q.Encode())
	if err != nil {
		return 0, fmt.Errorf("netrand: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("netrand: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s", errBadResponse, resp.Status)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadResponse, body)
	}
	return n, nil
}

// Option configures generators and fetchers.
type Option func(*options)

type options struct {
	logger *zap.Logger
	client *http.Client
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: 10 * time.Second}
	}
	return o
}

// WithLogger sets the logger used to report failed fetches.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the client used by RandomOrg.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}
