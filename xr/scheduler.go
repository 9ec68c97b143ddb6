package xr

import "xrshim/hal"

// FrameHandle identifies a frame request made through a Session. Zero is the
// no-op handle.
type FrameHandle uint32

type scheduledFrame struct {
	device hal.FrameHandle
	cb     FrameCallback
}

// FrameCallback runs once per requested frame. frame is valid only until the
// callback returns.
type FrameCallback func(timestamp float64, frame *Frame)

// RequestFrame schedules cb for the next device tick.
//
// On an ended session it returns the zero handle. While suspended it parks cb
// in a single-slot mailbox replayed on resume; a second request while the
// slot is taken is ignored and returns the zero handle.
func (s *Session) RequestFrame(cb FrameCallback) FrameHandle {
	if s.ended || cb == nil {
		return 0
	}
	if s.suspended {
		if s.retained != nil {
			return 0
		}
		h := s.newHandle()
		s.retained, s.retainedHandle = cb, h
		return h
	}
	h := s.newHandle()
	s.schedule(h, cb)
	return h
}

// CancelFrame cancels one pending request. Stale handles and ended sessions
// are ignored.
func (s *Session) CancelFrame(h FrameHandle) {
	if s.ended || h == 0 {
		return
	}
	if h == s.retainedHandle {
		s.retained, s.retainedHandle = nil, 0
		return
	}
	if sf, ok := s.scheduled[h]; ok {
		delete(s.scheduled, h)
		s.dev.CancelAnimationFrame(sf.device)
	}
}

func (s *Session) newHandle() FrameHandle {
	s.nextHandle++
	if s.nextHandle == 0 {
		s.nextHandle++
	}
	return s.nextHandle
}

// schedule asks the device for a tick and brackets cb with the device frame
// hooks. The handle h survives suspension so CancelFrame keeps working after
// a replay.
func (s *Session) schedule(h FrameHandle, cb FrameCallback) {
	dh := s.dev.RequestAnimationFrame(func(ts float64) {
		delete(s.scheduled, h)
		if s.ended || s.suspended {
			return
		}
		s.runFrame(ts, cb)
	})
	s.scheduled[h] = scheduledFrame{device: dh, cb: cb}
}

// parkScheduled pulls frames already handed to the device back into the
// mailbox. The earliest request keeps the slot and its handle; later ones
// are cancelled.
func (s *Session) parkScheduled() {
	var first FrameHandle
	for h := range s.scheduled {
		if first == 0 || h < first {
			first = h
		}
	}
	if first != 0 && s.retained == nil {
		s.retained, s.retainedHandle = s.scheduled[first].cb, first
	}
	for h, sf := range s.scheduled {
		s.dev.CancelAnimationFrame(sf.device)
		delete(s.scheduled, h)
	}
}

func (s *Session) runFrame(ts float64, cb FrameCallback) {
	s.applyPendingRenderState()
	s.dev.OnFrameStart(s.id, hal.RenderState{
		DepthNear: s.render.DepthNear,
		DepthFar:  s.render.DepthFar,
		BaseLayer: s.render.BaseLayer,
	})
	s.frame.begin(ts)
	defer func() {
		s.frame.active = false
		s.dev.OnFrameEnd(s.id)
	}()
	cb(ts, &s.frame)
}
