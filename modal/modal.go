// Package modal models a dialog as a scoped resource. A Session is acquired
// when a dialog opens and released exactly once when it closes; work bound
// to the session checks Active before reacting to a late result.
package modal

import (
	"sync"

	"github.com/rs/zerolog"
)

// Session is one open period of a dialog.
type Session struct {
	name string
	once sync.Once
	done chan struct{}
	log  zerolog.Logger
}

func newSession(name string, logger zerolog.Logger) *Session {
	return &Session{name: name, done: make(chan struct{}), log: logger}
}

// Name returns the dialog name the session belongs to.
func (s *Session) Name() string { return s.name }

// Close releases the session. Only the first call has an effect; it reports
// whether this call was the one that closed it.
func (s *Session) Close() bool {
	closed := false
	s.once.Do(func() {
		close(s.done)
		closed = true
		s.log.Debug().Str("dialog", s.name).Msg("dialog closed")
	})
	return closed
}

// Done is closed when the session is released.
func (s *Session) Done() <-chan struct{} { return s.done }

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// With runs fn inside s and releases s on every exit path, panics
// included.
func With(s *Session, fn func(s *Session) error) error {
	defer s.Close()
	return fn(s)
}

// Dialog hands out at most one active Session at a time.
type Dialog struct {
	mu      sync.Mutex
	name    string
	current *Session
	log     zerolog.Logger
}

// Option configures a Dialog.
type Option func(*Dialog)

// WithLogger sets the logger used for open and close traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dialog) {
		d.log = logger
	}
}

// NewDialog creates a closed dialog.
func NewDialog(name string, opts ...Option) *Dialog {
	d := &Dialog{name: name, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open returns the active session, acquiring a new one if the dialog is
// closed.
func (d *Dialog) Open() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.Active() {
		return d.current
	}
	d.current = newSession(d.name, d.log)
	d.log.Debug().Str("dialog", d.name).Msg("dialog opened")
	return d.current
}

// Close releases the active session, if any.
func (d *Dialog) Close() bool {
	d.mu.Lock()
	s := d.current
	d.mu.Unlock()
	if s == nil {
		return false
	}
	return s.Close()
}

// IsOpen reports whether a session is active.
func (d *Dialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current.Active()
}

// Session returns the active session or nil.
func (d *Dialog) Session() *Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current.Active() {
		return d.current
	}
	return nil
}
