package remote

import (
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientOptions is client options
type ClientOptions struct {
	addr   string
	dialer *websocket.Dialer
	logger *zap.Logger
}

// ClientOption is option setter for client
type ClientOption func(*ClientOptions)

// default client options
var (
	DefaultConnectAddress = "ws://127.0.0.1:8080/dice"
)

func newClientOptions(opts ...ClientOption) *ClientOptions {
	opt := &ClientOptions{}
	for _, o := range opts {
		o(opt)
	}

	if opt.addr == "" {
		opt.addr = DefaultConnectAddress
	}
	if opt.dialer == nil {
		opt.dialer = websocket.DefaultDialer
	}
	if opt.logger == nil {
		opt.logger = zap.NewNop()
	}

	return opt
}

// WithConnectAddress sets client connect address opt
func WithConnectAddress(addr string) ClientOption {
	return func(opts *ClientOptions) {
		opts.addr = addr
	}
}

// WithDialer sets the websocket dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(opts *ClientOptions) {
		opts.dialer = d
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.logger = l
	}
}
