// Package remote serves dice over websocket and fetches them back as a
// network entropy source.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tutils/tdice/dice"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1 << 10,
		WriteBufferSize: 1 << 10,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
)

const readTimeout = time.Second * 15
const pingPeriod = time.Second * 10
const writeTimeout = time.Second

var errUnknownOp = errors.New("remote: unknown operation")

// Server hands out dice to websocket clients. Every connection rolls on
// its own dice context.
type Server struct {
	opts ServerOptions
	addr *addr
	srv  *http.Server
}

// NewServer returns a server for the configured listen address.
func NewServer(opts ...ServerOption) (*Server, error) {
	opt := newServerOptions(opts...)
	a, err := newAddr(opt.addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts: *opt,
		addr: a,
	}
	mux := http.NewServeMux()
	mux.Handle(a.uri(), s)
	s.srv = &http.Server{
		Addr:    a.host(),
		Handler: mux,
	}
	return s, nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr.String()
}

// Handler returns the routed handler, for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// connection is the per-client dice state. A die request takes the spare
// die of the last pair before rolling again.
type connection struct {
	dc    *dice.Context
	spare int
}

func (c *connection) handle(req Request) Response {
	switch req.Op {
	case OpRoll:
		r, err := c.dc.Roll()
		if err != nil {
			return Response{Error: err.Error()}
		}
		return Response{Dice: []int{r[0], r[1]}}
	case OpDie:
		if c.spare != 0 {
			d := c.spare
			c.spare = 0
			return Response{Die: d}
		}
		r, err := c.dc.Roll()
		if err != nil {
			return Response{Error: err.Error()}
		}
		c.spare = r[1]
		return Response{Die: r[0]}
	}
	return Response{Error: fmt.Sprintf("%v: %q", errUnknownOp, req.Op)}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := s.opts.logger.With(
		zap.String("conn", uuid.NewString()),
		zap.String("remote", r.RemoteAddr),
	)
	dc, err := s.opts.newContext()
	if err != nil {
		log.Error("create dice context", zap.Error(err))
		s.write(conn, Response{Error: err.Error()})
		return
	}
	defer dc.Close()
	log.Info("dice client connected", zap.Stringer("rng", dc.Kind()), zap.String("session", dc.ID()))

	extendDeadline(conn)
	conn.SetPongHandler(func(string) error {
		extendDeadline(conn)
		return nil
	})
	done := make(chan struct{})
	defer close(done)
	go startPing(conn, done)

	c := &connection{dc: dc}
	for {
		typ, p, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read request", zap.Error(err))
			}
			break
		}
		extendDeadline(conn)
		if typ != websocket.TextMessage {
			continue
		}
		var req Request
		resp := Response{}
		if err := json.Unmarshal(p, &req); err != nil {
			resp.Error = fmt.Sprintf("remote: bad request: %v", err)
		} else {
			resp = c.handle(req)
		}
		if resp.Error != "" {
			log.Warn("dice request failed", zap.String("op", req.Op), zap.String("error", resp.Error))
		}
		if err := s.write(conn, resp); err != nil {
			log.Debug("write response", zap.Error(err))
			break
		}
	}
	log.Info("dice client disconnected", zap.Int64("dice", dc.Counter()))
}

func (s *Server) write(conn *websocket.Conn, resp Response) error {
	p, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, p)
}

func extendDeadline(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))
}

func startPing(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout))
		case <-done:
			return
		}
	}
}
