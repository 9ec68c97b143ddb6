package xr

import (
	"fmt"
	"io"
	"log/slog"

	"xrshim/hal"
)

// DefaultEmulationHeight is the eye height, in metres, used to emulate
// floor-relative spaces on devices that report no floor.
const DefaultEmulationHeight = 1.6

// Config tunes a System.
type Config struct {
	// Logger receives session lifecycle logs. Nil discards them.
	Logger *slog.Logger
	// EmulationHeight overrides DefaultEmulationHeight for spaces requested
	// without an explicit height.
	EmulationHeight float64
}

// SessionOptions describes a session request.
type SessionOptions struct {
	// Exclusive requests sole ownership of the immersive display.
	Exclusive bool
	// Surface is the output surface; required unless Exclusive.
	Surface hal.Surface
}

// System is the session state machine for one device. It owns the explicit
// "current exclusive session" slot and the only device subscription.
type System struct {
	dev hal.Device
	log *slog.Logger

	emulationHeight float64

	sessions  []*Session
	exclusive *Session

	unsubscribe func()
}

// NewSystem subscribes to dev's presentation notifications.
func NewSystem(dev hal.Device, cfg Config) *System {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := cfg.EmulationHeight
	if h <= 0 {
		h = DefaultEmulationHeight
	}
	s := &System{dev: dev, log: log, emulationHeight: h}
	s.unsubscribe = dev.Subscribe(s.onDeviceEvent)
	return s
}

// Close detaches the System from its device. Sessions still alive stop
// receiving presentation notifications.
func (sys *System) Close() {
	if sys.unsubscribe != nil {
		sys.unsubscribe()
		sys.unsubscribe = nil
	}
}

// IsSessionSupported reports whether the device can run a session of the
// given kind.
func (sys *System) IsSessionSupported(exclusive bool) bool {
	return sys.dev.IsSessionSupported(exclusive)
}

// ExclusiveSession returns the exclusive session, including one that is
// ending, or nil.
func (sys *System) ExclusiveSession() *Session { return sys.exclusive }

// Sessions returns the live sessions in creation order.
func (sys *System) Sessions() []*Session {
	return append([]*Session(nil), sys.sessions...)
}

// RequestSession starts a session. On failure no state changes.
func (sys *System) RequestSession(opts SessionOptions) (*Session, error) {
	if !opts.Exclusive && opts.Surface == nil {
		return nil, fmt.Errorf("%w: non-exclusive session requires an output surface", ErrNotSupported)
	}
	if !sys.dev.IsSessionSupported(opts.Exclusive) {
		return nil, fmt.Errorf("%w: %s session", ErrNotSupported, modeName(opts.Exclusive))
	}
	if opts.Exclusive && sys.exclusive != nil {
		return nil, fmt.Errorf("%w: exclusive session %d already exists", ErrInvalidState, sys.exclusive.id)
	}

	id, err := sys.dev.RequestSession(hal.SessionOptions{Exclusive: opts.Exclusive, Surface: opts.Surface})
	if err != nil {
		return nil, fmt.Errorf("xr: start %s session: %w", modeName(opts.Exclusive), err)
	}

	s := newSession(sys, id, opts)
	if !opts.Exclusive && sys.exclusive != nil {
		// Companions created during an exclusive presentation start paused.
		s.suspended = true
	}
	sys.sessions = append(sys.sessions, s)
	if opts.Exclusive {
		sys.exclusive = s
	}
	sys.log.Info("session started", "session", id, "mode", modeName(opts.Exclusive), "suspended", s.suspended)
	return s, nil
}

func (sys *System) onDeviceEvent(ev hal.DeviceEvent) {
	sys.log.Debug("device event", "event", ev.Kind.String(), "session", ev.Session)
	switch ev.Kind {
	case hal.PresentationStarted:
		for _, s := range sys.Sessions() {
			if s.id == ev.Session || s.exclusive || s.ended || s.suspended {
				continue
			}
			s.suspend()
		}
	case hal.PresentationEnded:
		var target *Session
		for _, s := range sys.Sessions() {
			if s.id == ev.Session {
				target = s
				continue
			}
			if s.suspended {
				s.resume()
			}
		}
		// The ending session finalizes last so observers never see a moment
		// with no current session while a companion is becoming current.
		if target != nil {
			sys.finalize(target)
		}
	}
}

// finalize moves s to the terminal state exactly once.
func (sys *System) finalize(s *Session) {
	if s.ended {
		return
	}
	s.ended = true
	s.ending = false
	s.suspended = false
	s.retained = nil
	s.retainedHandle = 0
	for h, sf := range s.scheduled {
		sys.dev.CancelAnimationFrame(sf.device)
		delete(s.scheduled, h)
	}

	for i, live := range sys.sessions {
		if live == s {
			sys.sessions = append(sys.sessions[:i:i], sys.sessions[i+1:]...)
			break
		}
	}
	if sys.exclusive == s {
		sys.exclusive = nil
	}
	sys.log.Info("session ended", "session", s.id, "mode", modeName(s.exclusive))

	s.events.emit(Event{Type: EventEnd, Session: s})
	s.events.clear()
}

func modeName(exclusive bool) string {
	if exclusive {
		return "exclusive"
	}
	return "non-exclusive"
}
