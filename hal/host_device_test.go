package hal

import (
	"errors"
	"testing"

	"xrshim/xrmath"
)

type fixedClock struct{ t float64 }

func (c *fixedClock) Now() float64 {
	c.t++
	return c.t
}

func TestHostDeviceFramesRunOnNextTick(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{Clock: &fixedClock{}})
	var order []int
	d.RequestAnimationFrame(func(float64) {
		order = append(order, 1)
		d.RequestAnimationFrame(func(float64) { order = append(order, 3) })
	})
	d.RequestAnimationFrame(func(float64) { order = append(order, 2) })

	if err := d.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("order=%v after first tick", order)
	}
	if d.Pending() != 1 {
		t.Fatalf("pending=%d", d.Pending())
	}
	if err := d.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(order) != 3 || order[2] != 3 {
		t.Fatalf("order=%v after second tick", order)
	}
}

func TestHostDeviceCancel(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{Clock: &fixedClock{}})
	ran := false
	h := d.RequestAnimationFrame(func(float64) { ran = true })
	d.CancelAnimationFrame(h)
	d.CancelAnimationFrame(h)
	d.CancelAnimationFrame(9999)
	if err := d.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if ran {
		t.Fatalf("cancelled frame ran")
	}
}

func TestHostDeviceTickRecoversAfterPanic(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{Clock: &fixedClock{}})
	d.RequestAnimationFrame(func(float64) { panic("boom") })
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic from frame callback")
			}
		}()
		_ = d.Tick()
	}()
	if d.running != nil {
		t.Fatalf("running=%d frames after panic, want none", len(d.running))
	}

	ran := false
	h := d.RequestAnimationFrame(func(float64) { ran = true })
	d.CancelAnimationFrame(h)
	if err := d.Tick(); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if ran {
		t.Fatalf("cancelled frame ran")
	}
}

func TestHostDevicePresentationEvents(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	var events []DeviceEvent
	unsub := d.Subscribe(func(ev DeviceEvent) { events = append(events, ev) })

	inline, err := d.RequestSession(SessionOptions{Surface: NewFramebuffer(4, 4)})
	if err != nil {
		t.Fatalf("inline: %v", err)
	}
	id, err := d.RequestSession(SessionOptions{Exclusive: true})
	if err != nil {
		t.Fatalf("exclusive: %v", err)
	}
	if _, err := d.RequestSession(SessionOptions{Exclusive: true}); !errors.Is(err, ErrPresentationRejected) {
		t.Fatalf("second exclusive err=%v", err)
	}
	d.EndSession(inline)
	d.EndSession(id)
	d.EndSession(id)

	want := []DeviceEvent{{Kind: PresentationStarted, Session: id}, {Kind: PresentationEnded, Session: id}}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events=%v, want %v", events, want)
	}

	unsub()
	if _, err := d.RequestSession(SessionOptions{Exclusive: true}); err != nil {
		t.Fatalf("exclusive after end: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("unsubscribed listener received %v", events[2:])
	}
}

func TestHostDeviceDisconnect(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	var ended SessionID
	d.Subscribe(func(ev DeviceEvent) {
		if ev.Kind == PresentationEnded {
			ended = ev.Session
		}
	})
	d.Disconnect()
	id, _ := d.RequestSession(SessionOptions{Exclusive: true})
	d.Disconnect()
	if ended != id || d.Presenting() != 0 {
		t.Fatalf("ended=%d presenting=%d", ended, d.Presenting())
	}
}

func TestHostDeviceReferenceSpaceTransform(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	if _, err := d.RequestReferenceSpaceTransform(SpaceStage); !errors.Is(err, ErrNoTransform) {
		t.Fatalf("err=%v, want ErrNoTransform", err)
	}
	if d.RequestStageBounds() != nil {
		t.Fatalf("bounds without configuration")
	}

	floor := xrmath.Mat4Translate(xrmath.V3(0, 1.5, 0))
	d = NewHostDevice(HostDeviceConfig{FloorTransform: &floor})
	m, err := d.RequestReferenceSpaceTransform(SpaceFloorLevel)
	if err != nil || m != floor {
		t.Fatalf("m=%v err=%v", m, err)
	}
	if _, err := d.RequestReferenceSpaceTransform(SpaceViewerLocal); !errors.Is(err, ErrNoTransform) {
		t.Fatalf("viewer-local err=%v", err)
	}
}

func TestHostDeviceEyeViews(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{IPD: 0.1})
	d.SetPose(xrmath.V3(1, 2, 3), xrmath.QuatIdentity())

	left := d.BaseViewMatrix(EyeLeft).Inverse().Translation()
	right := d.BaseViewMatrix(EyeRight).Inverse().Translation()
	mono := d.BaseViewMatrix(EyeNone).Inverse().Translation()
	near := func(a, b xrmath.Vec3) bool { return xrmath.Len(a.Sub(b)) < 1e-12 }
	if !near(left, xrmath.V3(0.95, 2, 3)) || !near(right, xrmath.V3(1.05, 2, 3)) || !near(mono, xrmath.V3(1, 2, 3)) {
		t.Fatalf("left=%v right=%v mono=%v", left, right, mono)
	}
}

func TestHostDeviceTracking(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	if _, ok := d.BasePoseMatrix(); !ok {
		t.Fatalf("new device not tracking")
	}
	d.SetTracking(false)
	if _, ok := d.BasePoseMatrix(); ok {
		t.Fatalf("pose reported while tracking lost")
	}
	d.SetPose(xrmath.Vec3{}, xrmath.QuatIdentity())
	if _, ok := d.BasePoseMatrix(); !ok {
		t.Fatalf("SetPose did not resume tracking")
	}
}

func TestHostDeviceMove(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	d.Move(1, 0)
	if p := d.Pose().Position; p != xrmath.V3(0, 0, -1) {
		t.Fatalf("forward moved to %v", p)
	}
}

func TestHostDeviceDepthRange(t *testing.T) {
	d := NewHostDevice(HostDeviceConfig{})
	before := d.ProjectionMatrix(EyeLeft)
	d.OnFrameStart(1, RenderState{DepthNear: 0.5, DepthFar: 20})
	d.OnFrameEnd(1)
	if near, far := d.DepthRange(); near != 0.5 || far != 20 {
		t.Fatalf("depth range %v..%v", near, far)
	}
	if d.ProjectionMatrix(EyeLeft) == before {
		t.Fatalf("projection ignores depth range")
	}
	if d.Frames() != 1 {
		t.Fatalf("frames=%d", d.Frames())
	}
}
