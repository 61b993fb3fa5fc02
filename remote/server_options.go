package remote

import (
	"go.uber.org/zap"

	"github.com/tutils/tdice/dice"
	"github.com/tutils/tdice/rng"
)

// ContextFactory creates the dice context owned by one connection.
type ContextFactory func() (*dice.Context, error)

// ServerOptions is server options
type ServerOptions struct {
	addr       string
	newContext ContextFactory
	logger     *zap.Logger
}

// ServerOption is option setter for server
type ServerOption func(*ServerOptions)

// default server options
var (
	DefaultListenAddress = "ws://0.0.0.0:8080/dice"
)

func newServerOptions(opts ...ServerOption) *ServerOptions {
	opt := &ServerOptions{}
	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		opt.addr = DefaultListenAddress
	}
	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}
	if opt.newContext == nil {
		l := opt.logger
		opt.newContext = func() (*dice.Context, error) {
			return dice.New(rng.KindDefault, dice.WithLogger(l))
		}
	}

	return opt
}

// WithListenAddress sets server listen address opt
func WithListenAddress(addr string) ServerOption {
	return func(opts *ServerOptions) {
		opts.addr = addr
	}
}

// WithContextFactory sets how each connection's dice context is created.
// The default is a system seeded Mersenne Twister.
func WithContextFactory(f ContextFactory) ServerOption {
	return func(opts *ServerOptions) {
		opts.newContext = f
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(opts *ServerOptions) {
		opts.logger = l
	}
}
