package xr

import (
	"testing"

	"xrshim/hal"
)

// stepClock advances 16ms every time it is read.
type stepClock struct{ now float64 }

func (c *stepClock) Now() float64 {
	c.now += 16
	return c.now
}

type testSurface struct{ w, h int }

func (s testSurface) Width() int  { return s.w }
func (s testSurface) Height() int { return s.h }

func newTestSystem(t *testing.T, cfg hal.HostDeviceConfig) (*System, *hal.HostDevice) {
	t.Helper()
	if cfg.Clock == nil {
		cfg.Clock = &stepClock{}
	}
	dev := hal.NewHostDevice(cfg)
	sys := NewSystem(dev, Config{})
	t.Cleanup(sys.Close)
	return sys, dev
}

func mustSession(t *testing.T, sys *System, opts SessionOptions) *Session {
	t.Helper()
	s, err := sys.RequestSession(opts)
	if err != nil {
		t.Fatalf("RequestSession(%+v): %v", opts, err)
	}
	return s
}

func companion(t *testing.T, sys *System) *Session {
	t.Helper()
	return mustSession(t, sys, SessionOptions{Surface: testSurface{w: 640, h: 480}})
}

func tick(t *testing.T, dev *hal.HostDevice, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := dev.Tick(); err != nil {
			t.Fatalf("tick: %v", err)
		}
	}
}

// frameLoop requests a frame from every callback and counts them.
type frameLoop struct {
	s     *Session
	calls int
	onRun func()
}

func (l *frameLoop) start() { l.s.RequestFrame(l.run) }

func (l *frameLoop) run(_ float64, _ *Frame) {
	l.calls++
	if l.onRun != nil {
		l.onRun()
	}
	l.s.RequestFrame(l.run)
}

func countEvents(s *Session, typ EventType) *int {
	n := new(int)
	s.Subscribe(typ, func(Event) { *n++ })
	return n
}
