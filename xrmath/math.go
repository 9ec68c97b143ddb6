package xrmath

import "math"

// Scalar is the numeric type used by all xrmath operations.
type Scalar = float64

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z Scalar
}

// Vec4 is a 4D vector. Points carry W=1, directions W=0.
type Vec4 struct {
	X, Y, Z, W Scalar
}

// Mat4 is a column-major 4x4 matrix: m[col*4+row].
type Mat4 [16]Scalar

func V3(x, y, z Scalar) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3   { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3   { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Mul(s Scalar) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func Dot(a, b Vec3) Scalar { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func Cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func Len(v Vec3) Scalar {
	return math.Sqrt(Dot(v, v))
}

func Normalize(v Vec3) Vec3 {
	l := Len(v)
	if l == 0 {
		return Vec3{}
	}
	return v.Mul(1 / l)
}

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func Mat4Mul(a, b Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] =
				a[0*4+row]*b[col*4+0] +
					a[1*4+row]*b[col*4+1] +
					a[2*4+row]*b[col*4+2] +
					a[3*4+row]*b[col*4+3]
		}
	}
	return out
}

func Mat4MulV4(m Mat4, v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// Mat4MulPoint transforms a point (W=1) and drops W.
func Mat4MulPoint(m Mat4, p Vec3) Vec3 {
	r := Mat4MulV4(m, Vec4{X: p.X, Y: p.Y, Z: p.Z, W: 1})
	return Vec3{X: r.X, Y: r.Y, Z: r.Z}
}

func Mat4Translate(v Vec3) Mat4 {
	m := Mat4Identity()
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
	return m
}

func Mat4RotateX(rad Scalar) Mat4 {
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

func Mat4RotateY(rad Scalar) Mat4 {
	c := math.Cos(rad)
	s := math.Sin(rad)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// Translation returns the translation column.
func (m Mat4) Translation() Vec3 {
	return Vec3{X: m[12], Y: m[13], Z: m[14]}
}

// WithoutTranslation returns m with the translation column zeroed.
func (m Mat4) WithoutTranslation() Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

// Mat4Invert returns the inverse of m. ok is false when m is singular, in
// which case the identity is returned.
func Mat4Invert(m Mat4) (out Mat4, ok bool) {
	a00, a01, a02, a03 := m[0], m[1], m[2], m[3]
	a10, a11, a12, a13 := m[4], m[5], m[6], m[7]
	a20, a21, a22, a23 := m[8], m[9], m[10], m[11]
	a30, a31, a32, a33 := m[12], m[13], m[14], m[15]

	b00 := a00*a11 - a01*a10
	b01 := a00*a12 - a02*a10
	b02 := a00*a13 - a03*a10
	b03 := a01*a12 - a02*a11
	b04 := a01*a13 - a03*a11
	b05 := a02*a13 - a03*a12
	b06 := a20*a31 - a21*a30
	b07 := a20*a32 - a22*a30
	b08 := a20*a33 - a23*a30
	b09 := a21*a32 - a22*a31
	b10 := a21*a33 - a23*a31
	b11 := a22*a33 - a23*a32

	det := b00*b11 - b01*b10 + b02*b09 + b03*b08 - b04*b07 + b05*b06
	if det == 0 {
		return Mat4Identity(), false
	}
	det = 1 / det

	out[0] = (a11*b11 - a12*b10 + a13*b09) * det
	out[1] = (a02*b10 - a01*b11 - a03*b09) * det
	out[2] = (a31*b05 - a32*b04 + a33*b03) * det
	out[3] = (a22*b04 - a21*b05 - a23*b03) * det
	out[4] = (a12*b08 - a10*b11 - a13*b07) * det
	out[5] = (a00*b11 - a02*b08 + a03*b07) * det
	out[6] = (a32*b02 - a30*b05 - a33*b01) * det
	out[7] = (a20*b05 - a22*b02 + a23*b01) * det
	out[8] = (a10*b10 - a11*b08 + a13*b06) * det
	out[9] = (a01*b08 - a00*b10 - a03*b06) * det
	out[10] = (a30*b04 - a31*b02 + a33*b00) * det
	out[11] = (a21*b02 - a20*b04 - a23*b00) * det
	out[12] = (a11*b07 - a10*b09 - a12*b06) * det
	out[13] = (a00*b09 - a01*b07 + a02*b06) * det
	out[14] = (a31*b01 - a30*b03 - a32*b00) * det
	out[15] = (a20*b03 - a21*b01 + a22*b00) * det
	return out, true
}

// Inverse is Mat4Invert without the singular flag.
func (m Mat4) Inverse() Mat4 {
	out, _ := Mat4Invert(m)
	return out
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func ApproxEqual(a, b Mat4, eps Scalar) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func Mat4Perspective(fovYRad Scalar, aspect Scalar, zNear, zFar Scalar) Mat4 {
	if aspect == 0 {
		aspect = 1
	}
	f := 1 / math.Tan(fovYRad/2)
	nf := 1 / (zNear - zFar)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (zFar + zNear) * nf, -1,
		0, 0, (2 * zFar * zNear) * nf, 0,
	}
}

// FieldOfView holds the four half-angles of an asymmetric frustum in radians.
type FieldOfView struct {
	Up, Down, Left, Right Scalar
}

// Mat4PerspectiveFOV builds an OpenGL-style projection for an asymmetric
// frustum, as reported per eye by stereo displays.
func Mat4PerspectiveFOV(fov FieldOfView, zNear, zFar Scalar) Mat4 {
	upTan := math.Tan(fov.Up)
	downTan := math.Tan(fov.Down)
	leftTan := math.Tan(fov.Left)
	rightTan := math.Tan(fov.Right)
	xScale := 2 / (leftTan + rightTan)
	yScale := 2 / (upTan + downTan)
	nf := 1 / (zNear - zFar)

	var out Mat4
	out[0] = xScale
	out[5] = yScale
	out[8] = -((leftTan - rightTan) * xScale * 0.5)
	out[9] = (upTan - downTan) * yScale * 0.5
	out[10] = (zFar + zNear) * nf
	out[11] = -1
	out[14] = 2 * zFar * zNear * nf
	return out
}
