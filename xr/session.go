package xr

import (
	"fmt"

	"xrshim/hal"
)

const (
	defaultDepthNear = 0.1
	defaultDepthFar  = 1000.0
)

// VisibilityState describes whether a session is being shown.
type VisibilityState string

const (
	Visible        VisibilityState = "visible"
	VisibleBlurred VisibilityState = "visible-blurred"
	Hidden         VisibilityState = "hidden"
)

// RenderState is the per-session state forwarded to the device at each
// frame start.
type RenderState struct {
	DepthNear float64
	DepthFar  float64
	// BaseLayer is the surface the session renders into.
	BaseLayer hal.Surface
}

// RenderStateInit updates a RenderState. Zero fields are left unchanged.
type RenderStateInit struct {
	DepthNear float64
	DepthFar  float64
	BaseLayer hal.Surface
}

// Session is one logical rendering context.
type Session struct {
	sys *System
	dev hal.Device
	id  hal.SessionID

	exclusive bool
	surface   hal.Surface

	ended     bool
	ending    bool
	suspended bool

	// Single-slot mailbox for the callback requested while suspended.
	retained       FrameCallback
	retainedHandle FrameHandle

	nextHandle FrameHandle
	scheduled  map[FrameHandle]scheduledFrame

	frame Frame

	render  RenderState
	pending *RenderStateInit

	events dispatcher
}

func newSession(sys *System, id hal.SessionID, opts SessionOptions) *Session {
	s := &Session{
		sys:       sys,
		dev:       sys.dev,
		id:        id,
		exclusive: opts.Exclusive,
		surface:   opts.Surface,
		scheduled: make(map[FrameHandle]scheduledFrame),
		render: RenderState{
			DepthNear: defaultDepthNear,
			DepthFar:  defaultDepthFar,
			BaseLayer: opts.Surface,
		},
	}
	s.frame.session = s
	return s
}

func (s *Session) ID() hal.SessionID        { return s.id }
func (s *Session) Exclusive() bool          { return s.exclusive }
func (s *Session) Surface() hal.Surface     { return s.surface }
func (s *Session) Ended() bool              { return s.ended }
func (s *Session) Suspended() bool          { return s.suspended }
func (s *Session) RenderState() RenderState { return s.render }

// VisibilityState reports hidden once ended and visible-blurred while
// suspended.
func (s *Session) VisibilityState() VisibilityState {
	switch {
	case s.ended:
		return Hidden
	case s.suspended:
		return VisibleBlurred
	default:
		return Visible
	}
}

// Subscribe registers fn for events of type typ. Listeners run in
// subscription order and are dropped when the session ends. Subscribing to an
// ended session is a no-op.
func (s *Session) Subscribe(typ EventType, fn Listener) (unsubscribe func()) {
	if s.ended || fn == nil {
		return func() {}
	}
	return s.events.subscribe(typ, fn)
}

// UpdateRenderState queues a render state change applied at the start of the
// next frame. It is a no-op on an ended session.
func (s *Session) UpdateRenderState(init RenderStateInit) {
	if s.ended {
		return
	}
	if s.pending == nil {
		s.pending = &RenderStateInit{}
	}
	if init.DepthNear > 0 {
		s.pending.DepthNear = init.DepthNear
	}
	if init.DepthFar > 0 {
		s.pending.DepthFar = init.DepthFar
	}
	if init.BaseLayer != nil {
		s.pending.BaseLayer = init.BaseLayer
	}
}

func (s *Session) applyPendingRenderState() {
	if s.pending == nil {
		return
	}
	p := s.pending
	s.pending = nil
	if p.DepthNear > 0 {
		s.render.DepthNear = p.DepthNear
	}
	if p.DepthFar > 0 {
		s.render.DepthFar = p.DepthFar
	}
	if p.BaseLayer != nil {
		s.render.BaseLayer = p.BaseLayer
	}
}

// End ends the session. It is safe to call repeatedly. An exclusive session
// finalizes when the device reports its presentation stopped; a
// non-exclusive one finalizes immediately.
func (s *Session) End() {
	if s.ended || s.ending {
		return
	}
	if s.exclusive {
		s.ending = true
		s.sys.log.Debug("ending exclusive session", "session", s.id)
		s.dev.EndSession(s.id)
		return
	}
	s.sys.finalize(s)
	s.dev.EndSession(s.id)
}

func (s *Session) suspend() {
	s.suspended = true
	s.parkScheduled()
	s.sys.log.Debug("session suspended", "session", s.id)
	s.events.emit(Event{Type: EventBlur, Session: s})
}

func (s *Session) resume() {
	s.suspended = false
	s.sys.log.Debug("session resumed", "session", s.id, "replay", s.retained != nil)
	s.events.emit(Event{Type: EventFocus, Session: s})
	if s.ended || s.suspended || s.retained == nil {
		return
	}
	cb, h := s.retained, s.retainedHandle
	s.retained, s.retainedHandle = nil, 0
	s.schedule(h, cb)
}

// Viewport returns the rectangle of target that eye renders into. A nil
// target means the current base layer. ok is false for an ended session or
// an eye the device does not recognize for this session.
func (s *Session) Viewport(eye hal.Eye, target hal.Surface) (vp hal.Viewport, ok bool) {
	if s.ended {
		return hal.Viewport{}, false
	}
	if target == nil {
		target = s.render.BaseLayer
	}
	if target == nil {
		return hal.Viewport{}, false
	}
	ok = s.dev.Viewport(s.id, eye, target, &vp)
	return vp, ok
}

// Eyes returns the views a session renders: left and right for an exclusive
// session, a single EyeNone view otherwise.
func (s *Session) Eyes() []hal.Eye {
	if s.exclusive {
		return []hal.Eye{hal.EyeLeft, hal.EyeRight}
	}
	return []hal.Eye{hal.EyeNone}
}

func (s *Session) String() string {
	return fmt.Sprintf("session %d (%s)", s.id, modeName(s.exclusive))
}
