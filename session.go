package nimbus

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/zoobzio/capitan"
)

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionOpen
	sessionClosed
)

// httpSession owns the transport connections underneath one client. It
// opens lazily on first use or explicitly through Open, and Close is
// idempotent. A closed session is terminal: further calls fail with
// ErrSessionClosed rather than reopening behind the caller's back.
//
// Sessions are safe for concurrent use by multiple goroutines.
type httpSession struct {
	client *http.Client
	mu     sync.Mutex
	state  sessionState
}

// newHTTPSession sizes a transport from the connector options and call
// timeouts. limit bounds both total and idle connections per host;
// keepalive_timeout bounds how long an idle connection survives.
func newHTTPSession(opts ConnectorOptions, connectTimeout, readTimeout time.Duration) *httpSession {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: opts.KeepaliveTimeout,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		IdleConnTimeout:       opts.KeepaliveTimeout,
		ResponseHeaderTimeout: readTimeout,
		DisableKeepAlives:     opts.ForceClose,
		TLSClientConfig:       opts.TLSConfig,
	}
	if opts.Limit > 0 {
		transport.MaxConnsPerHost = opts.Limit
		transport.MaxIdleConnsPerHost = opts.Limit
	}

	return &httpSession{
		client: &http.Client{Transport: transport},
	}
}

// Open marks the session usable. Opening is optional; the first request
// opens implicitly. Opening a closed session fails.
func (s *httpSession) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case sessionClosed:
		return ErrSessionClosed
	case sessionIdle:
		s.state = sessionOpen
		capitan.Info(ctx, SessionOpened)
	}
	return nil
}

// Do executes one HTTP request. The request's own context governs
// cancellation; the session only gates on lifecycle state.
func (s *httpSession) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	switch s.state {
	case sessionClosed:
		s.mu.Unlock()
		return nil, ErrSessionClosed
	case sessionIdle:
		s.state = sessionOpen
		capitan.Info(req.Context(), SessionOpened)
	}
	s.mu.Unlock()

	return s.client.Do(req)
}

// Close releases idle connections and marks the session terminal. Calling
// Close again is a no-op.
func (s *httpSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionClosed {
		return nil
	}
	s.state = sessionClosed
	s.client.CloseIdleConnections()
	capitan.Info(context.Background(), SessionClosed)
	return nil
}

// Closed reports whether Close has been called.
func (s *httpSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sessionClosed
}
