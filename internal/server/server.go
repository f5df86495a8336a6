package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eternalApril/kilodb/internal/config"
	"github.com/eternalApril/kilodb/internal/resp"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Server accepts client connections and feeds their commands to the engine
type Server struct {
	engine *Engine
	cfg    config.ServerConfig
	limits resp.Limits
	logger *zap.Logger
	peers  *xsync.MapOf[string, *Peer]
	conns  sync.WaitGroup
}

// NewServer creates a server on top of an engine
func NewServer(engine *Engine, cfg config.ServerConfig, logger *zap.Logger) *Server {
	limits := resp.DefaultLimits
	if cfg.MaxBulkLen > 0 {
		limits.MaxBulkLen = cfg.MaxBulkLen
	}

	return &Server{
		engine: engine,
		cfg:    cfg,
		limits: limits,
		logger: logger,
		peers:  xsync.NewMapOf[string, *Peer](),
	}
}

// ClientCount returns the number of open connections
func (s *Server) ClientCount() int {
	return s.peers.Size()
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully:
// the listener is closed, idle connections are interrupted and in-flight commands get
// ShutdownTimeout to finish before the remaining connections are closed
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					s.logger.Warn("accept error", zap.Error(err))
					continue
				}
				return err
			}

			s.conns.Go(func() {
				s.handleConnection(gctx, conn)
			})
		}
	})

	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}

	s.shutdown()
	return err
}

// shutdown waits for the connection handlers to return
func (s *Server) shutdown() {
	// wake up handlers blocked on an idle read
	s.peers.Range(func(_ string, p *Peer) bool {
		p.conn.SetReadDeadline(time.Now()) //nolint:errcheck
		return true
	})

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	select {
	case <-done:
		s.logger.Info("All connections closed gracefully")
	case <-time.After(timeout):
		s.logger.Warn("Shutdown timed out, closing connections", zap.Duration("timeout", timeout))
		s.peers.Range(func(_ string, p *Peer) bool {
			p.Close() //nolint:errcheck
			return true
		})
		<-done
	}
}

// newLimiter returns a per-connection limiter, or nil when rate limiting is off
func (s *Server) newLimiter() *rate.Limiter {
	if s.cfg.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.cfg.RateLimit), max(s.cfg.RateBurst, 1))
}

// handleConnection handles a connection for a single user
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	peer := NewPeer(conn, s.limits, s.newLimiter())
	s.peers.Store(peer.ID(), peer)

	log := s.logger.With(zap.String("peer", peer.ID()))
	if log.Core().Enabled(zap.DebugLevel) {
		log.Debug("client connected", zap.String("addr", peer.RemoteAddr()))
	}

	defer func() {
		s.peers.Delete(peer.ID())
		peer.Close() //nolint:errcheck
		// log connection close
		if log.Core().Enabled(zap.DebugLevel) {
			log.Debug("client disconnected", zap.String("addr", peer.RemoteAddr()))
		}
	}()

	// accepted while shutting down
	if ctx.Err() != nil {
		return
	}

	for {
		args, err := peer.ReadCommand()
		if err != nil {
			switch {
			case errors.Is(err, resp.ErrProtocol), errors.Is(err, resp.ErrLimitExceeded):
				log.Warn("protocol error", zap.Error(err))
				peer.Send(protocolError(err)) //nolint:errcheck
				peer.Flush()                  //nolint:errcheck
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, os.ErrDeadlineExceeded):
			default:
				log.Warn("read command failed", zap.Error(err))
			}
			return
		}

		// an empty frame is ignored
		if len(args) == 0 {
			continue
		}

		if err := peer.Wait(ctx); err != nil {
			return
		}

		result := s.engine.Execute(args)

		// buffered until the next read has to wait, so a pipelined batch is answered in one write
		if err = peer.Send(result); err != nil {
			log.Error("error writing response", zap.Error(err))
			return
		}
	}
}

// protocolError builds the reply sent before a connection is dropped for a malformed frame
func protocolError(err error) resp.Value {
	msg := err.Error()
	msg = strings.TrimPrefix(msg, resp.ErrProtocol.Error()+": ")
	msg = strings.TrimPrefix(msg, "resp: ")
	return resp.MakeGenericError("Protocol error: " + msg)
}
