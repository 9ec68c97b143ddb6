package xr

import (
	"errors"
	"strings"
	"testing"

	"xrshim/hal"
)

func TestExclusiveSessionNeedsNoSurface(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{})
	s := mustSession(t, sys, SessionOptions{Exclusive: true})
	if !s.Exclusive() || sys.ExclusiveSession() != s {
		t.Fatalf("exclusive slot not set")
	}
}

func TestNonExclusiveSessionRequiresSurface(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{})
	_, err := sys.RequestSession(SessionOptions{})
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("err=%v, want ErrNotSupported", err)
	}
	if len(sys.Sessions()) != 0 {
		t.Fatalf("failed request left a session behind")
	}
}

func TestSecondExclusiveSessionRejectedUntilFirstEnds(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{})
	first := mustSession(t, sys, SessionOptions{Exclusive: true})

	if _, err := sys.RequestSession(SessionOptions{Exclusive: true}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second exclusive err=%v, want ErrInvalidState", err)
	}

	first.End()
	if !first.Ended() {
		t.Fatalf("exclusive session not ended")
	}
	second := mustSession(t, sys, SessionOptions{Exclusive: true})
	if sys.ExclusiveSession() != second {
		t.Fatalf("exclusive slot=%v, want %v", sys.ExclusiveSession(), second)
	}
}

func TestUnsupportedModeRejected(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{DisableExclusive: true})
	if sys.IsSessionSupported(true) {
		t.Fatalf("exclusive reported supported")
	}
	if _, err := sys.RequestSession(SessionOptions{Exclusive: true}); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("err=%v, want ErrNotSupported", err)
	}
}

func TestRejectedPresentationLeavesStateUnchanged(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{RejectPresentation: true})
	c := companion(t, sys)
	blurs := countEvents(c, EventBlur)

	_, err := sys.RequestSession(SessionOptions{Exclusive: true})
	if !errors.Is(err, hal.ErrPresentationRejected) {
		t.Fatalf("err=%v, want adapter rejection", err)
	}
	if sys.ExclusiveSession() != nil || len(sys.Sessions()) != 1 {
		t.Fatalf("state changed after failed request")
	}
	if *blurs != 0 || c.Suspended() {
		t.Fatalf("companion suspended by a failed request")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{})
	for _, exclusive := range []bool{false, true} {
		var s *Session
		if exclusive {
			s = mustSession(t, sys, SessionOptions{Exclusive: true})
		} else {
			s = companion(t, sys)
		}
		ends := countEvents(s, EventEnd)
		s.End()
		s.End()
		if *ends != 1 {
			t.Fatalf("exclusive=%v: end events=%d, want 1", exclusive, *ends)
		}
		if s.VisibilityState() != Hidden {
			t.Fatalf("exclusive=%v: visibility=%s", exclusive, s.VisibilityState())
		}
	}
	if len(sys.Sessions()) != 0 {
		t.Fatalf("sessions left: %v", sys.Sessions())
	}
}

func TestExternalPresentationLossEndsSession(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	ends := countEvents(x, EventEnd)
	focus := countEvents(c, EventFocus)

	dev.Disconnect()
	if !x.Ended() || *ends != 1 {
		t.Fatalf("ended=%v ends=%d", x.Ended(), *ends)
	}
	if *focus != 1 || c.Suspended() {
		t.Fatalf("companion focus=%d suspended=%v", *focus, c.Suspended())
	}
	if sys.ExclusiveSession() != nil {
		t.Fatalf("exclusive slot still set")
	}
	x.End()
	if *ends != 1 {
		t.Fatalf("End after loss emitted again")
	}
}

func TestSuspensionRoundTrip(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	blurs := countEvents(c, EventBlur)
	focus := countEvents(c, EventFocus)
	loop := &frameLoop{s: c}
	loop.start()
	tick(t, dev, 2)
	if loop.calls != 2 {
		t.Fatalf("calls=%d before exclusive", loop.calls)
	}

	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	if *blurs != 1 || !c.Suspended() || c.VisibilityState() != VisibleBlurred {
		t.Fatalf("blurs=%d suspended=%v", *blurs, c.Suspended())
	}
	tick(t, dev, 3)
	if loop.calls != 2 {
		t.Fatalf("companion ran while suspended: calls=%d", loop.calls)
	}

	x.End()
	if *focus != 1 || c.Suspended() {
		t.Fatalf("focus=%d suspended=%v", *focus, c.Suspended())
	}
	tick(t, dev, 1)
	if loop.calls != 3 {
		t.Fatalf("calls=%d after resume, want 3", loop.calls)
	}
	tick(t, dev, 1)
	if loop.calls != 4 {
		t.Fatalf("calls=%d, want 4", loop.calls)
	}
	if *blurs != 1 || *focus != 1 {
		t.Fatalf("blurs=%d focus=%d", *blurs, *focus)
	}
}

func TestCompanionsBlurBeforeExclusiveFrameAndFocusBeforeNextFrame(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	var log []string
	record := func(s string) func() { return func() { log = append(log, s) } }

	a, b := companion(t, sys), companion(t, sys)
	for name, s := range map[string]*Session{"a": a, "b": b} {
		s.Subscribe(EventBlur, func(Event) { record(name + ":blur")() })
		s.Subscribe(EventFocus, func(Event) { record(name + ":focus")() })
	}
	la := &frameLoop{s: a, onRun: record("a:frame")}
	lb := &frameLoop{s: b, onRun: record("b:frame")}
	la.start()
	lb.start()
	tick(t, dev, 1)

	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	x.RequestFrame(func(float64, *Frame) { record("x:frame")() })
	tick(t, dev, 1)
	x.End()
	tick(t, dev, 1)

	got := strings.Join(log, " ")
	want := "a:frame b:frame a:blur b:blur x:frame a:focus b:focus a:frame b:frame"
	if got != want {
		t.Fatalf("order:\n got %s\nwant %s", got, want)
	}
}

func TestSuspendedMailboxHoldsOneCallback(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	x := mustSession(t, sys, SessionOptions{Exclusive: true})

	var first, second int
	h1 := c.RequestFrame(func(float64, *Frame) { first++ })
	h2 := c.RequestFrame(func(float64, *Frame) { second++ })
	if h1 == 0 || h2 != 0 {
		t.Fatalf("handles h1=%d h2=%d", h1, h2)
	}
	if dev.Pending() != 0 {
		t.Fatalf("suspended request scheduled a device tick")
	}

	x.End()
	tick(t, dev, 2)
	if first != 1 || second != 0 {
		t.Fatalf("first=%d second=%d", first, second)
	}
}

func TestFrameRequestedBeforeBlurKeepsMailbox(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)

	var early, late int
	h1 := c.RequestFrame(func(float64, *Frame) { early++ })
	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	h2 := c.RequestFrame(func(float64, *Frame) { late++ })
	if h1 == 0 || h2 != 0 {
		t.Fatalf("handles h1=%d h2=%d", h1, h2)
	}
	tick(t, dev, 1)
	if early != 0 {
		t.Fatalf("frame ran while suspended")
	}

	x.End()
	tick(t, dev, 2)
	if early != 1 || late != 0 {
		t.Fatalf("early=%d late=%d", early, late)
	}
}

func TestCancelFrameParkedByBlur(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)

	ran := false
	h := c.RequestFrame(func(float64, *Frame) { ran = true })
	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	if dev.Pending() != 0 {
		t.Fatalf("pending=%d after blur, want 0", dev.Pending())
	}
	c.CancelFrame(h)
	x.End()
	tick(t, dev, 1)
	if ran {
		t.Fatalf("cancelled frame ran after resume")
	}
}

func TestCancelRetainedCallback(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	x := mustSession(t, sys, SessionOptions{Exclusive: true})

	ran := false
	h := c.RequestFrame(func(float64, *Frame) { ran = true })
	c.CancelFrame(h)
	x.End()
	tick(t, dev, 1)
	if ran {
		t.Fatalf("cancelled retained callback ran")
	}
}

func TestCancelAfterReplayUsesSameHandle(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	x := mustSession(t, sys, SessionOptions{Exclusive: true})

	ran := false
	h := c.RequestFrame(func(float64, *Frame) { ran = true })
	x.End()
	c.CancelFrame(h)
	tick(t, dev, 1)
	if ran {
		t.Fatalf("replayed callback ran after cancel")
	}
}

func TestCompanionStartedDuringExclusiveIsSuspended(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	x := mustSession(t, sys, SessionOptions{Exclusive: true})
	c := companion(t, sys)
	if !c.Suspended() {
		t.Fatalf("companion not suspended")
	}
	focus := countEvents(c, EventFocus)
	ran := 0
	c.RequestFrame(func(float64, *Frame) { ran++ })
	tick(t, dev, 1)
	if ran != 0 {
		t.Fatalf("suspended companion ran")
	}
	x.End()
	tick(t, dev, 1)
	if *focus != 1 || ran != 1 {
		t.Fatalf("focus=%d ran=%d", *focus, ran)
	}
}

func TestEndedSessionOperationsAreNoOps(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	c.End()

	if h := c.RequestFrame(func(float64, *Frame) { t.Fatalf("frame on ended session") }); h != 0 {
		t.Fatalf("handle=%d, want 0", h)
	}
	c.CancelFrame(1)
	c.UpdateRenderState(RenderStateInit{DepthNear: 5})
	c.Subscribe(EventEnd, func(Event) { t.Fatalf("listener on ended session") })
	if _, err := c.RequestReferenceSpace(hal.SpaceViewerLocal, ReferenceSpaceOptions{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err=%v, want ErrInvalidState", err)
	}
	if _, ok := c.Viewport(hal.EyeNone, nil); ok {
		t.Fatalf("viewport on ended session")
	}
	tick(t, dev, 1)
	c.End()
}

func TestEndCancelsScheduledFrames(t *testing.T) {
	sys, dev := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	c.RequestFrame(func(float64, *Frame) { t.Fatalf("frame after end") })
	c.End()
	if dev.Pending() != 0 {
		t.Fatalf("pending=%d after end", dev.Pending())
	}
	tick(t, dev, 1)
}

func TestUnsubscribe(t *testing.T) {
	sys, _ := newTestSystem(t, hal.HostDeviceConfig{})
	c := companion(t, sys)
	n := 0
	unsub := c.Subscribe(EventBlur, func(Event) { n++ })
	unsub()
	mustSession(t, sys, SessionOptions{Exclusive: true})
	if n != 0 {
		t.Fatalf("unsubscribed listener ran")
	}
}
