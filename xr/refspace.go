package xr

import (
	"errors"
	"fmt"

	"xrshim/hal"
	"xrshim/xrmath"
)

// ReferenceSpaceOptions tunes a reference space request.
type ReferenceSpaceOptions struct {
	// DisableEmulation makes floor-level and stage requests fail when the
	// device has no native transform instead of emulating one.
	DisableEmulation bool
	// EmulationHeight overrides the System's emulation height.
	EmulationHeight float64
}

// ReferenceSpace is a coordinate convention poses are expressed in. It is
// immutable; WithOffset derives a new space.
type ReferenceSpace struct {
	session hal.SessionID
	kind    hal.SpaceType

	// transform maps raw device poses into this space when hasTransform.
	transform    xrmath.Mat4
	hasTransform bool
	// stripPosition marks the head-tracked-only emulation.
	stripPosition  bool
	emulatedHeight float64
	bounds         []xrmath.Vec3

	origin xrmath.Mat4
}

// RequestReferenceSpace resolves a space of the given type: a native device
// transform first, then emulation for floor-level and stage, otherwise an
// error. Failure leaves the session unchanged.
func (s *Session) RequestReferenceSpace(kind hal.SpaceType, opts ReferenceSpaceOptions) (*ReferenceSpace, error) {
	if s.ended {
		return nil, fmt.Errorf("%w: %s has ended", ErrInvalidState, s)
	}
	rs := &ReferenceSpace{session: s.id, kind: kind, origin: xrmath.Mat4Identity()}

	switch kind {
	case hal.SpaceViewerLocal:
		return rs, nil
	case hal.SpacePositionDisabled:
		rs.stripPosition = true
		return rs, nil
	case hal.SpaceFloorLevel, hal.SpaceStage, hal.SpaceBoundedFloor:
	default:
		return nil, fmt.Errorf("%w: reference space %q", ErrNotSupported, kind)
	}

	m, err := s.dev.RequestReferenceSpaceTransform(kind)
	if err == nil {
		rs.transform, rs.hasTransform = m, true
		rs.bounds = s.dev.RequestStageBounds()
		if kind == hal.SpaceBoundedFloor && len(rs.bounds) == 0 {
			return nil, fmt.Errorf("%w: bounded-floor without device bounds", ErrNotSupported)
		}
		return rs, nil
	}

	if kind == hal.SpaceBoundedFloor {
		return nil, fmt.Errorf("%w: bounded-floor requires a device transform: %w", ErrNotSupported, err)
	}
	if opts.DisableEmulation {
		return nil, fmt.Errorf("xr: %s reference space: %w", kind, err)
	}

	h := opts.EmulationHeight
	if h <= 0 {
		h = s.sys.emulationHeight
	}
	rs.transform = xrmath.Mat4Translate(xrmath.V3(0, h, 0))
	rs.hasTransform = true
	rs.emulatedHeight = h
	if !errors.Is(err, hal.ErrNoTransform) {
		s.sys.log.Warn("device rejected reference space, emulating", "session", s.id, "space", string(kind), "err", err)
	} else {
		s.sys.log.Debug("emulating reference space", "session", s.id, "space", string(kind), "height", h)
	}
	return rs, nil
}

func (r *ReferenceSpace) Type() hal.SpaceType { return r.kind }

// EmulatedHeight is the emulated eye height, zero when the device supplied
// the transform.
func (r *ReferenceSpace) EmulatedHeight() float64 { return r.emulatedHeight }

// BoundsGeometry returns the device-reported floor polygon, if any.
func (r *ReferenceSpace) BoundsGeometry() []xrmath.Vec3 {
	return append([]xrmath.Vec3(nil), r.bounds...)
}

// OriginOffset returns the accumulated origin offset.
func (r *ReferenceSpace) OriginOffset() RigidTransform {
	return RigidTransformFromMatrix(r.origin)
}

// WithOffset returns a new space whose origin is this space's origin
// followed by offset. r is not modified.
func (r *ReferenceSpace) WithOffset(offset RigidTransform) *ReferenceSpace {
	return r.withOffsetMatrix(offset.Matrix())
}

func (r *ReferenceSpace) withOffsetMatrix(m xrmath.Mat4) *ReferenceSpace {
	out := *r
	out.bounds = r.BoundsGeometry()
	out.origin = xrmath.Mat4Mul(r.origin, m)
	return &out
}

// transformPose maps a raw device pose into the space, before the origin
// offset.
func (r *ReferenceSpace) transformPose(raw xrmath.Mat4) xrmath.Mat4 {
	switch {
	case r.hasTransform:
		return xrmath.Mat4Mul(r.transform, raw)
	case r.stripPosition:
		return raw.WithoutTranslation()
	default:
		return raw
	}
}

// transformView maps a raw device view matrix into the space, before the
// origin offset. View matrices are inverse poses, so the transform applies
// on the right, inverted.
func (r *ReferenceSpace) transformView(raw xrmath.Mat4) xrmath.Mat4 {
	switch {
	case r.hasTransform:
		return xrmath.Mat4Mul(raw, r.transform.Inverse())
	case r.stripPosition:
		return raw.Inverse().WithoutTranslation().Inverse()
	default:
		return raw
	}
}

func (r *ReferenceSpace) applyPose(raw xrmath.Mat4) xrmath.Mat4 {
	return xrmath.Mat4Mul(r.origin.Inverse(), r.transformPose(raw))
}

func (r *ReferenceSpace) applyView(raw xrmath.Mat4) xrmath.Mat4 {
	return xrmath.Mat4Mul(r.transformView(raw), r.origin)
}
