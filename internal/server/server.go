// Package server runs one plan review session over a local HTTP
// listener: it serves the review UI with the plan injected, accepts
// exactly one decision, and hands it back to the caller.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/plannotator/plannotator/internal/middleware"
	"github.com/plannotator/plannotator/internal/netmode"
	"github.com/plannotator/plannotator/internal/review"
	"github.com/plannotator/plannotator/web"
)

// maxBindAttempts bounds the local-mode retry loop. Remote mode never
// retries: the fixed port is externally advertised, so no other port
// is valid.
const maxBindAttempts = 5

var (
	// ErrBind reports that the resolved port could not be bound.
	ErrBind = errors.New("server: failed to bind listener")

	// ErrAborted is returned from WaitForDecision when the session is
	// stopped or the wait is canceled before a decision arrives.
	ErrAborted = errors.New("server: review aborted before a decision")
)

// Options configures a review session.
type Options struct {
	Plan    string
	Origin  string // short tag identifying the invoking agent
	Binding netmode.Binding

	// OnReady is invoked exactly once after the listener is accepting
	// connections. Optional.
	OnReady func(url string, remote bool, port int)
}

// Server owns one review session for its lifetime: Created →
// Listening → Decided → Stopped. Only the decision endpoint drives the
// Listening → Decided transition; everything else is caller-driven.
type Server struct {
	id        string
	plan      string
	origin    string
	binding   netmode.Binding
	port      int
	createdAt time.Time

	httpSrv  *http.Server
	listener net.Listener

	mu       sync.Mutex
	decision *review.Decision
	decided  chan struct{} // closed when the decision is recorded

	stopOnce sync.Once
	stopped  chan struct{} // closed by Stop
}

// Start binds a listener per the resolved binding and begins serving
// the review UI. The returned Server is listening when Start returns.
func Start(opts Options) (*Server, error) {
	if opts.Plan == "" {
		return nil, errors.New("server: plan must not be empty")
	}
	if opts.Origin == "" {
		return nil, errors.New("server: origin must not be empty")
	}

	s := &Server{
		id:        uuid.NewString(),
		plan:      opts.Plan,
		origin:    opts.Origin,
		binding:   opts.Binding,
		createdAt: time.Now(),
		decided:   make(chan struct{}),
		stopped:   make(chan struct{}),
	}

	ln, err := listen(opts.Binding)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	s.port = ln.Addr().(*net.TCPAddr).Port

	s.httpSrv = &http.Server{
		Handler:     s.router(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: the websocket notifier holds its
		// connection open until the decision lands.
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Review server failed", "session_id", s.id, "error", err)
		}
	}()

	slog.Info("Review session listening",
		"session_id", s.id, "origin", s.origin, "url", s.URL(), "remote", s.binding.Remote)

	if opts.OnReady != nil {
		opts.OnReady(s.URL(), s.binding.Remote, s.port)
	}
	return s, nil
}

// netListen is swappable in tests to simulate bind failures.
var netListen = net.Listen

// listen binds the resolved address. Local mode asks the OS for an
// ephemeral port and retries a few times on failure; remote mode
// surfaces the first error.
func listen(b netmode.Binding) (net.Listener, error) {
	attempts := 1
	if !b.Remote {
		attempts = maxBindAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		ln, err := netListen("tcp", b.Addr())
		if err == nil {
			return ln, nil
		}
		lastErr = err
		slog.Warn("Bind attempt failed", "addr", b.Addr(), "attempt", i+1, "error", err)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrBind, b.Addr(), lastErr)
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS())

	r.Get("/", s.handleIndex)
	r.Get("/plan", s.handlePlan)
	r.Get("/ws", s.handleEvents)
	r.Post("/decision", s.handleDecision)
	r.Handle("/*", web.AssetHandler())
	return r
}

// ID returns the session identifier used in logs and records.
func (s *Server) ID() string { return s.id }

// Port returns the bound port.
func (s *Server) Port() int { return s.port }

// URL returns the address to open in a browser. Remote sessions are
// reached through a tunnel that forwards to the fixed port, so the
// URL is always loopback-shaped.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// WaitForDecision suspends the caller until a decision is recorded.
// Canceling ctx or stopping the server releases the wait with
// ErrAborted.
func (s *Server) WaitForDecision(ctx context.Context) (review.Decision, error) {
	select {
	case <-s.decided:
		return s.recordedDecision(), nil
	case <-s.stopped:
		return s.decisionOrAborted()
	case <-ctx.Done():
		return s.decisionOrAborted()
	}
}

// decisionOrAborted resolves the race between a recorded decision and
// a concurrent stop or cancellation: an accepted decision has already
// released the waiter, so it wins.
func (s *Server) decisionOrAborted() (review.Decision, error) {
	select {
	case <-s.decided:
		return s.recordedDecision(), nil
	default:
		return review.Decision{}, ErrAborted
	}
}

func (s *Server) recordedDecision() review.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.decision
}

// recordDecision is the single Listening → Decided transition: a
// check-and-set under the mutex so that of two near-simultaneous
// submissions exactly one wins.
func (s *Server) recordDecision(d review.Decision) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision != nil {
		return false
	}
	s.decision = &d
	close(s.decided)
	return true
}

// Stop closes the listener and releases the port. Idempotent, and safe
// whether or not a decision was ever received; an outstanding
// WaitForDecision is released with ErrAborted.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.httpSrv.Close()
		}
		slog.Info("Review session stopped", "session_id", s.id)
	})
}
