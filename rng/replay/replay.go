// Package replay implements a dice backend that reads pre-recorded faces
// from a file.
//
// Only the ASCII digits '1' to '6' are dice; every other byte is skipped.
// Reaching the end of the file rewinds to the start.
package replay

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"go.uber.org/zap"

	"github.com/tutils/tdice/rng"
)

// Opener opens the replay resource at its start.
type Opener func() (io.ReadSeekCloser, error)

var (
	// ErrNoDice means a full pass over the resource found no die faces.
	ErrNoDice = errors.New("replay: no dice in file")
	// ErrClosed means the generator was used after Close.
	ErrClosed = errors.New("replay: file closed")
)

// failed is the face returned alongside an error.
const failed = -1

var _ rng.Generator = (*Generator)(nil)

// Generator reads faces one byte at a time.
type Generator struct {
	name string
	open Opener
	f    io.ReadSeekCloser
	r    *bufio.Reader
	pos  int64
	log  *zap.Logger
}

// Open opens the file at path.
func Open(path string, opts ...Option) (*Generator, error) {
	return New(path, func() (io.ReadSeekCloser, error) {
		return os.Open(path)
	}, opts...)
}

// New opens a resource called name using open.
func New(name string, open Opener, opts ...Option) (*Generator, error) {
	o := newOptions(opts...)
	f, err := open()
	if err != nil {
		return nil, fmt.Errorf("replay: open %s: %w", name, err)
	}
	return &Generator{
		name: name,
		open: open,
		f:    f,
		r:    bufio.NewReader(f),
		log:  o.logger,
	}, nil
}

// Name returns the resource name.
func (g *Generator) Name() string { return g.name }

func (g *Generator) Kind() rng.Kind { return rng.KindFile }

func (g *Generator) rewind() error {
	if _, err := g.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("replay: rewind %s: %w", g.name, err)
	}
	g.r.Reset(g.f)
	g.pos = 0
	return nil
}

// next returns the next face. It rewinds at most once per call, so a
// resource without any faces fails instead of looping.
func (g *Generator) next() (int, error) {
	if g.f == nil {
		return failed, ErrClosed
	}
	rewound := false
	for {
		b, err := g.r.ReadByte()
		switch {
		case err == io.EOF:
			if rewound {
				return failed, fmt.Errorf("%w: %s", ErrNoDice, g.name)
			}
			g.log.Info("rewinding dice file", zap.String("file", g.name))
			if err := g.rewind(); err != nil {
				return failed, err
			}
			rewound = true
			continue
		case err != nil:
			return failed, fmt.Errorf("replay: read %s: %w", g.name, err)
		}
		g.pos++
		if b >= '1' && b <= '6' {
			return int(b - '0'), nil
		}
	}
}

func (g *Generator) Roll() (rng.Roll, error) {
	d0, err := g.next()
	if err != nil {
		return rng.Roll{failed, failed}, err
	}
	d1, err := g.next()
	if err != nil {
		return rng.Roll{d0, failed}, err
	}
	return rng.Roll{d0, d1}, nil
}

// Seed is a no-op.
func (g *Generator) Seed(uint32) error { return nil }

// SeedBig is a no-op.
func (g *Generator) SeedBig(*big.Int) error { return nil }

func (g *Generator) DescribeSeed() (string, error) {
	return fmt.Sprintf("Reading dice from file: %s", g.name), nil
}

// Clone reopens the resource and positions it where g is.
func (g *Generator) Clone() (rng.Generator, error) {
	if g.f == nil {
		return nil, ErrClosed
	}
	f, err := g.open()
	if err != nil {
		return nil, fmt.Errorf("replay: reopen %s: %w", g.name, err)
	}
	if _, err := f.Seek(g.pos, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("replay: seek %s: %w", g.name, err)
	}
	return &Generator{
		name: g.name,
		open: g.open,
		f:    f,
		r:    bufio.NewReader(f),
		pos:  g.pos,
		log:  g.log,
	}, nil
}

func (g *Generator) Close() error {
	if g.f == nil {
		return nil
	}
	err := g.f.Close()
	g.f = nil
	g.r = nil
	return err
}

// Option configures a Generator.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// WithLogger sets the logger used to report rewinds.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
