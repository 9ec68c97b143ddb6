package xrmath

import "math"

// Quat is a unit quaternion (x, y, z, w) describing an orientation.
type Quat struct {
	X, Y, Z, W Scalar
}

func QuatIdentity() Quat { return Quat{W: 1} }

// QuatFromAxisAngle returns the rotation of rad radians about axis.
func QuatFromAxisAngle(axis Vec3, rad Scalar) Quat {
	axis = Normalize(axis)
	s := math.Sin(rad / 2)
	return Quat{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: math.Cos(rad / 2)}
}

// Mul returns q*o (o applied first).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.X*o.W + q.W*o.X + q.Y*o.Z - q.Z*o.Y,
		Y: q.Y*o.W + q.W*o.Y + q.Z*o.X - q.X*o.Z,
		Z: q.Z*o.W + q.W*o.Z + q.X*o.Y - q.Y*o.X,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quat) Conjugate() Quat { return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W} }

// Normalize returns q scaled to unit length. A zero quaternion becomes the
// identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return QuatIdentity()
	}
	inv := 1 / l
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{X: q.X, Y: q.Y, Z: q.Z}
	t := Cross(u, v).Mul(2)
	return v.Add(t.Mul(q.W)).Add(Cross(u, t))
}

// Mat4FromRotationTranslation composes rotation q followed by translation v.
func Mat4FromRotationTranslation(q Quat, v Vec3) Mat4 {
	x2, y2, z2 := q.X+q.X, q.Y+q.Y, q.Z+q.Z
	xx, xy, xz := q.X*x2, q.X*y2, q.X*z2
	yy, yz, zz := q.Y*y2, q.Y*z2, q.Z*z2
	wx, wy, wz := q.W*x2, q.W*y2, q.W*z2

	return Mat4{
		1 - (yy + zz), xy + wz, xz - wy, 0,
		xy - wz, 1 - (xx + zz), yz + wx, 0,
		xz + wy, yz - wx, 1 - (xx + yy), 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Rotation extracts the orientation of an unscaled rigid matrix.
func (m Mat4) Rotation() Quat {
	m11, m12, m13 := m[0], m[1], m[2]
	m21, m22, m23 := m[4], m[5], m[6]
	m31, m32, m33 := m[8], m[9], m[10]

	trace := m11 + m22 + m33
	var q Quat
	switch {
	case trace > 0:
		s := math.Sqrt(trace+1) * 2
		q = Quat{W: 0.25 * s, X: (m23 - m32) / s, Y: (m31 - m13) / s, Z: (m12 - m21) / s}
	case m11 > m22 && m11 > m33:
		s := math.Sqrt(1+m11-m22-m33) * 2
		q = Quat{W: (m23 - m32) / s, X: 0.25 * s, Y: (m12 + m21) / s, Z: (m31 + m13) / s}
	case m22 > m33:
		s := math.Sqrt(1+m22-m11-m33) * 2
		q = Quat{W: (m31 - m13) / s, X: (m12 + m21) / s, Y: 0.25 * s, Z: (m23 + m32) / s}
	default:
		s := math.Sqrt(1+m33-m11-m22) * 2
		q = Quat{W: (m12 - m21) / s, X: (m31 + m13) / s, Y: (m23 + m32) / s, Z: 0.25 * s}
	}
	return q
}
