// Package session manages the lifecycle of a stateful upstream connection.
//
// A Session moves Disconnected → Connecting → Connected. Connect is
// idempotent and concurrent callers share a single in-flight attempt.
// A failed attempt returns the session to Disconnected so a later request
// can try again. Disconnect wins over an attempt still in flight: the late
// connection is closed and the session stays Disconnected.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/stockfusion/internal/infra"
)

// State is the connection state of a Session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrUnavailable is returned when the session could not be established.
var ErrUnavailable = errors.New("session unavailable")

// Transport performs the actual login and logout against the upstream.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
}

// Session is an explicitly owned connection handle. It is safe for
// concurrent use; once connected it is shared read-only.
type Session struct {
	name      string
	transport Transport
	log       zerolog.Logger

	mu    sync.RWMutex
	state State
	gen   uint64 // bumped by Disconnect
	group singleflight.Group
}

// New creates a disconnected session over transport.
func New(name string, transport Transport, log zerolog.Logger) *Session {
	return &Session{
		name:      name,
		transport: transport,
		log:       infra.Component(log, "session").With().Str("provider", name).Logger(),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Connected reports whether the session is usable.
func (s *Session) Connected() bool {
	return s.State() == Connected
}

// Connect establishes the session if needed. Callers arriving while an
// attempt is in flight wait for it and observe its result.
func (s *Session) Connect(ctx context.Context) error {
	if s.Connected() {
		return nil
	}

	_, err, _ := s.group.Do("connect", func() (any, error) {
		s.mu.Lock()
		if s.state == Connected {
			s.mu.Unlock()
			return nil, nil
		}
		s.state = Connecting
		gen := s.gen
		s.mu.Unlock()

		err := s.transport.Open(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			if err == nil {
				if cerr := s.transport.Close(); cerr != nil {
					s.log.Warn().Err(cerr).Msg("close after cancelled connect")
				}
			}
			s.log.Debug().Msg("connect abandoned by disconnect")
			return nil, fmt.Errorf("%w: %s: disconnected while connecting", ErrUnavailable, s.name)
		}
		if err != nil {
			s.state = Disconnected
			s.log.Warn().Err(err).Msg("connect failed")
			return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, s.name, err)
		}
		s.state = Connected
		s.log.Debug().Msg("connected")
		return nil, nil
	})
	return err
}

// Disconnect closes the session. It is a no-op when already disconnected.
// An attempt still connecting is abandoned and closes its own transport.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disconnected {
		return nil
	}
	prev := s.state
	s.state = Disconnected
	s.gen++
	if prev == Connecting {
		return nil
	}
	if err := s.transport.Close(); err != nil {
		return fmt.Errorf("disconnect %s: %w", s.name, err)
	}
	s.log.Debug().Msg("disconnected")
	return nil
}

// Invalidate marks a broken connection as disconnected without a logout
// round trip, so the next Connect dials again.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.state = Disconnected
	s.mu.Unlock()
}
