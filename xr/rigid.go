package xr

import "xrshim/xrmath"

// RigidTransform is a position and orientation, convertible to a matrix.
// The zero value is the identity.
type RigidTransform struct {
	position    xrmath.Vec3
	orientation xrmath.Quat
	matrix      xrmath.Mat4
}

// NewRigidTransform builds a transform that rotates by orientation, then
// translates by position. The orientation is normalized.
func NewRigidTransform(position xrmath.Vec3, orientation xrmath.Quat) RigidTransform {
	q := orientation.Normalize()
	return RigidTransform{
		position:    position,
		orientation: q,
		matrix:      xrmath.Mat4FromRotationTranslation(q, position),
	}
}

// IdentityTransform returns the transform that changes nothing.
func IdentityTransform() RigidTransform {
	return NewRigidTransform(xrmath.Vec3{}, xrmath.QuatIdentity())
}

// RigidTransformFromMatrix decomposes an unscaled rigid matrix.
func RigidTransformFromMatrix(m xrmath.Mat4) RigidTransform {
	return RigidTransform{
		position:    m.Translation(),
		orientation: m.Rotation(),
		matrix:      m,
	}
}

func (t RigidTransform) Position() xrmath.Vec3 { return t.position }

func (t RigidTransform) Orientation() xrmath.Quat {
	if t.orientation == (xrmath.Quat{}) {
		return xrmath.QuatIdentity()
	}
	return t.orientation
}

func (t RigidTransform) Matrix() xrmath.Mat4 {
	if t.matrix == (xrmath.Mat4{}) {
		return xrmath.Mat4Identity()
	}
	return t.matrix
}

// Inverse returns the transform undoing t.
func (t RigidTransform) Inverse() RigidTransform {
	q := t.Orientation().Conjugate()
	return NewRigidTransform(q.Rotate(t.position).Mul(-1), q)
}
