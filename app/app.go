// Package app wires the session system to the host environment: a companion
// session mirrors the viewer into the framebuffer, and the Enter key toggles
// an exclusive session that renders side-by-side eyes into the same buffer.
package app

import (
	"fmt"
	"log/slog"

	"xrshim/hal"
	"xrshim/xr"
)

const (
	moveStep = 0.05
	turnStep = 0.05
)

// Config selects how the demo sessions are set up.
type Config struct {
	Space            hal.SpaceType
	DisableEmulation bool
	EmulationHeight  float64
	DepthNear        float64
	DepthFar         float64
	StartExclusive   bool
}

type system struct {
	h   *hal.Host
	sys *xr.System
	log *slog.Logger
	cfg Config

	companion *renderer
	exclusive *renderer
}

// NewWithConfig starts the companion session and returns the per-tick step.
// Setup failures are reported by the first step.
func NewWithConfig(h *hal.Host, cfg Config, log *slog.Logger) func() error {
	s, err := newSystem(h, cfg, log)
	if err != nil {
		return func() error { return err }
	}
	return s.step
}

func newSystem(h *hal.Host, cfg Config, log *slog.Logger) (*system, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Space == "" {
		cfg.Space = hal.SpaceFloorLevel
	}
	s := &system{
		h:   h,
		sys: xr.NewSystem(h.Device, xr.Config{Logger: log, EmulationHeight: cfg.EmulationHeight}),
		log: log,
		cfg: cfg,
	}

	c, err := s.start(false)
	if err != nil {
		return nil, err
	}
	s.companion = c
	if cfg.StartExclusive {
		s.toggleExclusive()
	}
	return s, nil
}

func (s *system) step() error {
	for {
		select {
		case ev := <-s.h.Keyboard.Events():
			if ev.Press {
				s.handleKey(ev.Code)
			}
		default:
			return nil
		}
	}
}

func (s *system) handleKey(code hal.KeyCode) {
	dev := s.h.Device
	switch code {
	case hal.KeyUp:
		dev.Move(moveStep, 0)
	case hal.KeyDown:
		dev.Move(-moveStep, 0)
	case hal.KeyLeft:
		dev.Move(0, turnStep)
	case hal.KeyRight:
		dev.Move(0, -turnStep)
	case hal.KeyEnter:
		s.toggleExclusive()
	case hal.KeyEscape:
		if s.exclusive != nil {
			s.exclusive.session.End()
		}
	case hal.KeySpace:
		s.log.Info("simulating display disconnect")
		dev.Disconnect()
	}
}

func (s *system) toggleExclusive() {
	if s.exclusive != nil {
		s.exclusive.session.End()
		return
	}
	r, err := s.start(true)
	if err != nil {
		s.log.Warn("exclusive session unavailable", "err", err)
		return
	}
	s.exclusive = r
}

func (s *system) start(exclusive bool) (*renderer, error) {
	opts := xr.SessionOptions{Exclusive: exclusive}
	if !exclusive {
		opts.Surface = s.h.Framebuffer
	}
	session, err := s.sys.RequestSession(opts)
	if err != nil {
		return nil, err
	}
	session.UpdateRenderState(xr.RenderStateInit{
		DepthNear: s.cfg.DepthNear,
		DepthFar:  s.cfg.DepthFar,
		BaseLayer: s.h.Framebuffer,
	})

	space, err := session.RequestReferenceSpace(s.cfg.Space, xr.ReferenceSpaceOptions{
		DisableEmulation: s.cfg.DisableEmulation,
	})
	if err != nil {
		session.End()
		return nil, fmt.Errorf("reference space: %w", err)
	}
	if h := space.EmulatedHeight(); h > 0 {
		s.log.Info("reference space emulated", "session", session.ID(), "space", string(space.Type()), "height", h)
	}

	r := &renderer{session: session, space: space, fb: s.h.Framebuffer, log: s.log}
	s.watch(r)
	r.handle = session.RequestFrame(r.frame)
	return r, nil
}

func (s *system) watch(r *renderer) {
	id := r.session.ID()
	r.session.Subscribe(xr.EventBlur, func(xr.Event) { s.log.Info("session blurred", "session", id) })
	r.session.Subscribe(xr.EventFocus, func(xr.Event) { s.log.Info("session focused", "session", id) })
	r.session.Subscribe(xr.EventEnd, func(xr.Event) {
		s.log.Info("session ended", "session", id, "frames", r.frames)
		if s.exclusive == r {
			s.exclusive = nil
		}
		if s.companion == r {
			s.companion = nil
		}
	})
}
