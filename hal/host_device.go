package hal

import (
	"fmt"
	"math"

	"xrshim/xrmath"
)

const (
	defaultIPD       = 0.064
	defaultHalfFOV   = math.Pi / 4
	defaultDepthNear = 0.1
	defaultDepthFar  = 1000.0
)

// Pose is a raw viewer pose sample.
type Pose struct {
	Timestamp   float64
	Position    xrmath.Vec3
	Orientation xrmath.Quat
}

// Matrix returns the pose as a rigid transform matrix.
func (p Pose) Matrix() xrmath.Mat4 {
	return xrmath.Mat4FromRotationTranslation(p.Orientation.Normalize(), p.Position)
}

// PoseSource feeds poses into a HostDevice, one per Tick.
type PoseSource interface {
	NextPose() (Pose, bool)
}

// PoseSink receives every pose a HostDevice samples.
type PoseSink interface {
	Record(p Pose) error
}

// HostDeviceConfig describes the simulated display.
type HostDeviceConfig struct {
	// DisableExclusive makes exclusive session requests unsupported.
	DisableExclusive bool
	// RejectPresentation fails every presentation start, as a platform
	// without a user gesture would.
	RejectPresentation bool
	// FloorTransform, when set, is reported as the native transform for
	// floor-level, stage and bounded-floor spaces.
	FloorTransform *xrmath.Mat4
	// StageBounds is the reported floor polygon (nil for none).
	StageBounds []xrmath.Vec3
	// IPD is the interpupillary distance in metres.
	IPD float64
	// FOV is the per-eye field of view.
	FOV xrmath.FieldOfView
	// Clock supplies frame timestamps. Nil means a monotonic clock.
	Clock Clock
}

type hostSession struct {
	exclusive bool
	surface   Surface
}

type pendingFrame struct {
	handle    FrameHandle
	cb        FrameCallback
	cancelled bool
}

type subscriber struct {
	id int
	fn func(DeviceEvent)
}

// HostDevice is an inline, software-only Device. Frames are queued by
// RequestAnimationFrame and run by Tick, which the host runner calls once per
// display refresh. It is not safe for concurrent use.
type HostDevice struct {
	cfg   HostDeviceConfig
	clock Clock

	nextSession SessionID
	sessions    map[SessionID]hostSession
	presenting  SessionID

	nextHandle FrameHandle
	queue      []*pendingFrame
	running    []*pendingFrame

	nextSub int
	subs    []subscriber

	tracking bool
	pose     Pose
	source   PoseSource
	sink     PoseSink

	state   RenderState
	inFrame SessionID
	frames  uint64
}

// NewHostDevice returns a HostDevice tracking at the origin.
func NewHostDevice(cfg HostDeviceConfig) *HostDevice {
	if cfg.IPD <= 0 {
		cfg.IPD = defaultIPD
	}
	if cfg.FOV == (xrmath.FieldOfView{}) {
		cfg.FOV = xrmath.FieldOfView{Up: defaultHalfFOV, Down: defaultHalfFOV, Left: defaultHalfFOV, Right: defaultHalfFOV}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &HostDevice{
		cfg:      cfg,
		clock:    clock,
		sessions: make(map[SessionID]hostSession),
		tracking: true,
		pose:     Pose{Orientation: xrmath.QuatIdentity()},
		state:    RenderState{DepthNear: defaultDepthNear, DepthFar: defaultDepthFar},
	}
}

func (d *HostDevice) IsSessionSupported(exclusive bool) bool {
	return !exclusive || !d.cfg.DisableExclusive
}

func (d *HostDevice) RequestSession(opts SessionOptions) (SessionID, error) {
	if !d.IsSessionSupported(opts.Exclusive) {
		return 0, ErrUnsupportedMode
	}
	if opts.Exclusive {
		if d.cfg.RejectPresentation {
			return 0, ErrPresentationRejected
		}
		if d.presenting != 0 {
			return 0, fmt.Errorf("%w: session %d is presenting", ErrPresentationRejected, d.presenting)
		}
	}
	d.nextSession++
	id := d.nextSession
	d.sessions[id] = hostSession{exclusive: opts.Exclusive, surface: opts.Surface}
	if opts.Exclusive {
		d.presenting = id
		d.emit(DeviceEvent{Kind: PresentationStarted, Session: id})
	}
	return id, nil
}

func (d *HostDevice) EndSession(id SessionID) {
	s, ok := d.sessions[id]
	if !ok {
		return
	}
	delete(d.sessions, id)
	if s.exclusive && d.presenting == id {
		d.presenting = 0
		d.emit(DeviceEvent{Kind: PresentationEnded, Session: id})
	}
}

// Disconnect drops the current presentation as if the display went away.
func (d *HostDevice) Disconnect() {
	if d.presenting == 0 {
		return
	}
	d.EndSession(d.presenting)
}

// Presenting returns the exclusive session currently presenting, or zero.
func (d *HostDevice) Presenting() SessionID { return d.presenting }

func (d *HostDevice) RequestAnimationFrame(cb FrameCallback) FrameHandle {
	d.nextHandle++
	if d.nextHandle == 0 {
		d.nextHandle++
	}
	d.queue = append(d.queue, &pendingFrame{handle: d.nextHandle, cb: cb})
	return d.nextHandle
}

func (d *HostDevice) CancelAnimationFrame(h FrameHandle) {
	for _, q := range [][]*pendingFrame{d.queue, d.running} {
		for _, f := range q {
			if f.handle == h {
				f.cancelled = true
				return
			}
		}
	}
}

// Pending reports how many animation frames are queued for the next Tick.
func (d *HostDevice) Pending() int {
	n := 0
	for _, f := range d.queue {
		if !f.cancelled {
			n++
		}
	}
	return n
}

// Tick samples the pose source and runs every frame queued before the call.
// Frames requested from inside a callback run on the next Tick.
func (d *HostDevice) Tick() error {
	now := d.clock.Now()
	if d.source != nil {
		if p, ok := d.source.NextPose(); ok {
			d.pose = p
			d.tracking = true
		}
	}
	d.pose.Timestamp = now
	if d.sink != nil && d.tracking {
		if err := d.sink.Record(d.pose); err != nil {
			return fmt.Errorf("record pose: %w", err)
		}
	}

	d.running, d.queue = d.queue, nil
	defer func() { d.running = nil }()
	for _, f := range d.running {
		if f.cancelled {
			continue
		}
		f.cancelled = true
		f.cb(now)
	}
	return nil
}

// Frames returns how many frames were bracketed by OnFrameStart/OnFrameEnd.
func (d *HostDevice) Frames() uint64 { return d.frames }

func (d *HostDevice) OnFrameStart(id SessionID, state RenderState) {
	d.inFrame = id
	if state.DepthNear > 0 {
		d.state.DepthNear = state.DepthNear
	}
	if state.DepthFar > 0 {
		d.state.DepthFar = state.DepthFar
	}
	d.state.BaseLayer = state.BaseLayer
}

func (d *HostDevice) OnFrameEnd(id SessionID) {
	if d.inFrame == id {
		d.inFrame = 0
		d.frames++
	}
}

// DepthRange returns the depth range applied by the last frame start.
func (d *HostDevice) DepthRange() (near, far float64) {
	return d.state.DepthNear, d.state.DepthFar
}

func (d *HostDevice) RequestReferenceSpaceTransform(kind SpaceType) (xrmath.Mat4, error) {
	switch kind {
	case SpaceFloorLevel, SpaceStage, SpaceBoundedFloor:
		if d.cfg.FloorTransform != nil {
			return *d.cfg.FloorTransform, nil
		}
	}
	return xrmath.Mat4{}, fmt.Errorf("%w: %s", ErrNoTransform, kind)
}

func (d *HostDevice) RequestStageBounds() []xrmath.Vec3 {
	if len(d.cfg.StageBounds) == 0 {
		return nil
	}
	out := make([]xrmath.Vec3, len(d.cfg.StageBounds))
	copy(out, d.cfg.StageBounds)
	return out
}

// SetPose replaces the raw viewer pose and resumes tracking.
func (d *HostDevice) SetPose(position xrmath.Vec3, orientation xrmath.Quat) {
	d.pose.Position = position
	d.pose.Orientation = orientation.Normalize()
	d.tracking = true
}

// SetTracking toggles tracking; while lost BasePoseMatrix reports no pose.
func (d *HostDevice) SetTracking(ok bool) { d.tracking = ok }

// Pose returns the current raw pose.
func (d *HostDevice) Pose() Pose { return d.pose }

// SetPoseSource installs a source consulted at every Tick (nil to remove).
func (d *HostDevice) SetPoseSource(src PoseSource) { d.source = src }

// SetPoseSink installs a sink receiving every sampled pose (nil to remove).
func (d *HostDevice) SetPoseSink(sink PoseSink) { d.sink = sink }

// Move translates the viewer along its own heading and yaws it by yaw radians.
func (d *HostDevice) Move(forward, yaw float64) {
	q := xrmath.QuatFromAxisAngle(xrmath.V3(0, 1, 0), yaw).Mul(d.pose.Orientation)
	dir := q.Rotate(xrmath.V3(0, 0, -1))
	d.SetPose(d.pose.Position.Add(dir.Mul(forward)), q)
}

func (d *HostDevice) BasePoseMatrix() (xrmath.Mat4, bool) {
	if !d.tracking {
		return xrmath.Mat4{}, false
	}
	return d.pose.Matrix(), true
}

func (d *HostDevice) BaseViewMatrix(eye Eye) xrmath.Mat4 {
	var offset float64
	switch eye {
	case EyeLeft:
		offset = -d.cfg.IPD / 2
	case EyeRight:
		offset = d.cfg.IPD / 2
	}
	eyePose := xrmath.Mat4Mul(d.pose.Matrix(), xrmath.Mat4Translate(xrmath.V3(offset, 0, 0)))
	return eyePose.Inverse()
}

func (d *HostDevice) ProjectionMatrix(eye Eye) xrmath.Mat4 {
	return xrmath.Mat4PerspectiveFOV(d.cfg.FOV, d.state.DepthNear, d.state.DepthFar)
}

func (d *HostDevice) Viewport(id SessionID, eye Eye, target Surface, out *Viewport) bool {
	s, ok := d.sessions[id]
	if !ok || target == nil {
		return false
	}
	return SplitViewport(s.exclusive, eye, target.Width(), target.Height(), out)
}

func (d *HostDevice) Subscribe(fn func(DeviceEvent)) func() {
	d.nextSub++
	id := d.nextSub
	d.subs = append(d.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

func (d *HostDevice) emit(ev DeviceEvent) {
	subs := append([]subscriber(nil), d.subs...)
	for _, s := range subs {
		s.fn(ev)
	}
}
