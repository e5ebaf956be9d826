package math

import "github.com/chewxy/math32"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := math32.Sin(halfAngle)
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: math32.Cos(halfAngle),
	}
}

// QuatFromEulerXYZ builds a quaternion from Euler angles in radians applied
// in X, then Y, then Z order.
func QuatFromEulerXYZ(e Vec3) Quat {
	qx := QuatFromAxisAngle(Vec3{1, 0, 0}, e.X)
	qy := QuatFromAxisAngle(Vec3{0, 1, 0}, e.Y)
	qz := QuatFromAxisAngle(Vec3{0, 0, 1}, e.Z)
	return qz.Mul(qy).Mul(qx)
}

// QuatFromMat4 extracts the rotation of a transform matrix.
// Column scale is divided out first, so TRS matrices are accepted.
func QuatFromMat4(m Mat4) Quat {
	r := m.RotationMatrix()
	m00, m01, m02 := r[0], r[4], r[8]
	m10, m11, m12 := r[1], r[5], r[9]
	m20, m21, m22 := r[2], r[6], r[10]

	var q Quat
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q = Quat{W: 0.25 / s, X: (m21 - m12) * s, Y: (m02 - m20) * s, Z: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math32.Sqrt(1+m00-m11-m22)
		q = Quat{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math32.Sqrt(1+m11-m00-m22)
		q = Quat{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := 2 * math32.Sqrt(1+m22-m00-m11)
		q = Quat{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}

// QuatTrackX returns the rotation whose local +X axis points along dir,
// keeping local +Z as close as possible to world +Z. When dir is parallel to
// +Z the world +Y axis is used as the up hint instead. A zero dir yields the
// identity.
func QuatTrackX(dir Vec3) Quat {
	x := dir.Normalize()
	if x.LengthSq() == 0 {
		return QuatIdentity()
	}
	up := Vec3{0, 0, 1}
	if math32.Abs(x.Dot(up)) > 0.9999 {
		up = Vec3{0, 1, 0}
	}
	z := up.Sub(x.Scale(up.Dot(x))).Normalize()
	y := z.Cross(x)
	return QuatFromMat4(FromMat3x3([9]float32{
		x.X, x.Y, x.Z,
		y.X, y.Y, y.Z,
		z.X, z.Y, z.Z,
	}))
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math32.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Conjugate returns the conjugate, which is the inverse for unit quaternions.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Rotate applies the rotation to a vector.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// EulerXYZ returns the Euler angles (radians, X then Y then Z order) of the
// rotation.
func (q Quat) EulerXYZ() Vec3 {
	m := q.ToMat4()
	m00, m10, m20 := m[0], m[1], m[2]
	m11, m21 := m[5], m[6]
	m12, m22 := m[9], m[10]

	cy := math32.Sqrt(m00*m00 + m10*m10)
	if cy > 1e-6 {
		return Vec3{
			X: math32.Atan2(m21, m22),
			Y: math32.Atan2(-m20, cy),
			Z: math32.Atan2(m10, m00),
		}
	}
	// Gimbal lock: fold Z into X.
	return Vec3{
		X: math32.Atan2(-m12, m11),
		Y: math32.Atan2(-m20, cy),
		Z: 0,
	}
}

// Mul multiplies two quaternions (combines rotations).
// The result applies other first, then q.
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// IsIdentity reports whether q is within tol of a zero rotation.
func (q Quat) IsIdentity(tol float32) bool {
	return math32.Abs(math32.Abs(q.W)-1) <= tol
}
