// Package server accepts connections and hands each one to a bounded pool of
// workers. A worker reads one request, answers it and closes the connection.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sagarc03/mayray"
	mayrayhttp "github.com/sagarc03/mayray/http"
)

const (
	// DefaultMaxWorkers is the pool size used when Config.MaxWorkers is zero.
	DefaultMaxWorkers = 8
	// DefaultShutdownTimeout is used when Config.ShutdownTimeout is zero.
	DefaultShutdownTimeout = 30 * time.Second

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Config holds configuration for the server.
type Config struct {
	// MaxWorkers bounds the number of connections served at the same time.
	// The acceptor blocks while all workers are busy.
	MaxWorkers int
	// ReadTimeout bounds reading the request. Zero means no limit: a client
	// that never finishes its request keeps its worker busy.
	ReadTimeout time.Duration
	// ShutdownTimeout bounds waiting for in-flight connections once the
	// server is asked to stop.
	ShutdownTimeout time.Duration
}

// Listener opens the listening socket, e.g. a keystore.Provider.
type Listener interface {
	Listen(addr string) (net.Listener, error)
}

// Server serves a route table.
type Server struct {
	config  Config
	routes  mayray.Routes
	logger  *slog.Logger
	metrics *Metrics
	sem     *semaphore.Weighted

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// New creates a new Server. metrics may be nil.
func New(config Config, routes mayray.Routes, logger *slog.Logger, metrics *Metrics) *Server {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = DefaultMaxWorkers
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Server{
		config:  config,
		routes:  routes,
		logger:  logger,
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(config.MaxWorkers)),
		conns:   make(map[net.Conn]struct{}),
	}
}

// ListenAndServe opens a listener on addr through l and serves it until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, l Listener) error {
	ln, err := l.Listen(addr)
	if err != nil {
		return err
	}
	s.logger.Info("starting server", "addr", ln.Addr().String(), "workers", s.config.MaxWorkers)
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
// Accept errors are logged and retried with a growing delay. On return the
// listener is closed and every worker has finished.
//
// Serve returns nil after ctx was cancelled and all workers finished in time.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	// Workers finish the request they are on even after ctx is cancelled.
	connCtx := context.WithoutCancel(ctx)

	var (
		delay    time.Duration
		serveErr error
	)
	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}

		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				serveErr = fmt.Errorf("accept: %w", err)
				break
			}

			delay = nextDelay(delay)
			s.metrics.acceptErrors.Inc()
			s.logger.Error("accept failed", "err", err, "retry_in", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0

		s.metrics.connections.Inc()
		s.track(conn)
		go func() {
			defer s.sem.Release(1)
			defer s.untrack(conn)
			s.serveConn(connCtx, conn)
		}()
	}

	_ = ln.Close()
	if err := s.wait(); err != nil {
		return err
	}
	return serveErr
}

// wait blocks until every worker slot is free again. Connections still open
// after the shutdown timeout are closed.
func (s *Server) wait() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, int64(s.config.MaxWorkers)); err != nil {
		s.logger.Warn("closing connections still in flight", "timeout", s.config.ShutdownTimeout)
		s.closeAll()
		// Closed connections make their workers return promptly.
		_ = s.sem.Acquire(context.Background(), int64(s.config.MaxWorkers))
		s.sem.Release(int64(s.config.MaxWorkers))
		return ErrShutdownTimeout
	}
	s.sem.Release(int64(s.config.MaxWorkers))
	return nil
}

func nextDelay(delay time.Duration) time.Duration {
	if delay == 0 {
		return minAcceptDelay
	}
	delay *= 2
	if delay > maxAcceptDelay {
		return maxAcceptDelay
	}
	return delay
}

func (s *Server) track(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Server) closeAll() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

// serveConn answers the single request on conn and closes it.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	start := time.Now()
	route := "none"
	status := 0
	logger := s.logger.With("remote", conn.RemoteAddr().String())

	s.metrics.activeWorkers.Inc()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
		if err := conn.Close(); err != nil && !isClientAbort(err) {
			logger.Warn("failed to close connection", "err", err)
		}
		s.metrics.activeWorkers.Dec()
		s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}()

	if s.config.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			logger.Warn("failed to set read deadline", "err", err)
		}
	}

	var response []byte
	req, err := mayrayhttp.ParseRequest(ctx, bufio.NewReader(conn), logger)
	switch {
	case err != nil:
		s.metrics.parseFailures.Inc()
		if errors.Is(err, mayrayhttp.ErrEmptyRequest) || isClientAbort(err) {
			logger.Debug("could not parse request", "err", err)
		} else {
			logger.Warn("could not parse request", "err", err)
		}
		route = "bad request"
		response = mayrayhttp.BadRequest()
	default:
		logger = logger.With("method", req.Method.String(), "resource", req.Resource)
		if r, ok := s.routes.Match(req.Resource); ok {
			route = r.Name
			logger.Debug("matched route", "route", r.Name)
			response = r.Handler.Respond(req)
		} else {
			route = "not found"
			response = mayrayhttp.NotFound()
		}
	}

	status, _ = mayrayhttp.StatusOf(response)

	w := bufio.NewWriter(conn)
	if _, err = w.Write(response); err == nil {
		err = w.Flush()
	}
	s.logWriteError(logger, err)

	logger.Info("answered request", "route", route, "status", status, "bytes", len(response), "duration", time.Since(start))
}

func (s *Server) logWriteError(logger *slog.Logger, err error) {
	switch {
	case err == nil:
	case isClientAbort(err):
		logger.Debug("client went away before the response was sent", "err", err)
	default:
		logger.Error("failed to write response", "err", err)
	}
}

// isClientAbort reports whether err means the client closed its end of the
// connection.
func isClientAbort(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET)
}
