package hal

import (
	"errors"

	"xrshim/xrmath"
)

var (
	// ErrNoTransform is returned by a device that cannot supply a native
	// transform for the requested reference space.
	ErrNoTransform = errors.New("no native reference space transform")
	// ErrUnsupportedMode is returned when the device cannot start the
	// requested kind of presentation.
	ErrUnsupportedMode = errors.New("session mode not supported")
	// ErrPresentationRejected is returned when the underlying presentation
	// could not begin (e.g. the platform requires a user gesture).
	ErrPresentationRejected = errors.New("presentation rejected")
)

// SessionID identifies a session on the device. Zero is never issued.
type SessionID uint32

// FrameHandle identifies a scheduled animation frame. Zero is never issued.
type FrameHandle uint32

// FrameCallback receives a monotonic, process-relative timestamp in
// milliseconds.
type FrameCallback func(timestamp float64)

// Eye selects a view.
type Eye uint8

const (
	// EyeNone is the single view of a non-exclusive session.
	EyeNone Eye = iota
	EyeLeft
	EyeRight
)

func (e Eye) String() string {
	switch e {
	case EyeNone:
		return "none"
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return "unknown"
	}
}

// SpaceType names a reference space coordinate convention.
type SpaceType string

const (
	SpaceViewerLocal      SpaceType = "viewer-local"
	SpacePositionDisabled SpaceType = "position-disabled"
	SpaceFloorLevel       SpaceType = "floor-level"
	SpaceBoundedFloor     SpaceType = "bounded-floor"
	SpaceStage            SpaceType = "stage"
)

// Surface is an output surface a session renders into.
type Surface interface {
	Width() int
	Height() int
}

// Viewport is a pixel rectangle within a Surface.
type Viewport struct {
	X, Y, Width, Height int
}

// SessionOptions describes a session request.
type SessionOptions struct {
	Exclusive bool
	Surface   Surface
}

// RenderState is forwarded to the device at every frame start.
type RenderState struct {
	DepthNear float64
	DepthFar  float64
	BaseLayer Surface
}

// EventKind is a device notification kind.
type EventKind uint8

const (
	PresentationStarted EventKind = iota + 1
	PresentationEnded
)

func (k EventKind) String() string {
	switch k {
	case PresentationStarted:
		return "presentation-started"
	case PresentationEnded:
		return "presentation-ended"
	default:
		return "unknown"
	}
}

// DeviceEvent is emitted on the device notification channel.
type DeviceEvent struct {
	Kind    EventKind
	Session SessionID
}

// Device is the capability surface every session-level component calls
// through. Matrices are column-major, in metres.
type Device interface {
	IsSessionSupported(exclusive bool) bool
	RequestSession(opts SessionOptions) (SessionID, error)
	// EndSession is idempotent. Ending an exclusive session emits
	// PresentationEnded once the presentation has stopped.
	EndSession(id SessionID)

	RequestAnimationFrame(cb FrameCallback) FrameHandle
	CancelAnimationFrame(h FrameHandle)
	OnFrameStart(id SessionID, state RenderState)
	OnFrameEnd(id SessionID)

	// RequestReferenceSpaceTransform returns the native transform for the
	// given space or an error (ErrNoTransform when unsupported).
	RequestReferenceSpaceTransform(kind SpaceType) (xrmath.Mat4, error)
	// RequestStageBounds returns the floor polygon or nil.
	RequestStageBounds() []xrmath.Vec3

	// BasePoseMatrix reports the raw viewer pose; ok is false while
	// tracking is lost.
	BasePoseMatrix() (m xrmath.Mat4, ok bool)
	BaseViewMatrix(eye Eye) xrmath.Mat4
	ProjectionMatrix(eye Eye) xrmath.Mat4
	Viewport(id SessionID, eye Eye, target Surface, out *Viewport) bool

	Subscribe(fn func(DeviceEvent)) (unsubscribe func())
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook. It doubles as
// the output surface of host sessions.
type Framebuffer interface {
	Surface
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	FillRect(vp Viewport, r, g, b uint8)
	Present() error
}

// KeyCode is a minimal key identifier.
type KeyCode uint16

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyEscape
	KeySpace
)

// KeyEvent is a keyboard event.
type KeyEvent struct {
	Code  KeyCode
	Press bool
}

// Keyboard provides key events (best-effort on each platform).
type Keyboard interface {
	Events() <-chan KeyEvent
}

// Clock is a monotonic, process-relative millisecond time source.
type Clock interface {
	Now() float64
}
