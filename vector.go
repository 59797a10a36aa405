package marlon

import "github.com/chewxy/math32"

// Vec3 is a 3-component vector used throughout the physics world for
// positions, velocities, and directions.
type Vec3 struct {
	X, Y, Z float32
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

func (v Vec3) LengthSquared() float32 {
	return v.Dot(v)
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

// Normalized returns a unit-length copy of v. If v is (near) zero, fallback
// is returned instead, so callers handling coincident points can pick an
// arbitrary axis per "no contact" / "arbitrary normal" rule.
func (v Vec3) Normalized(fallback Vec3) Vec3 {
	lengthSquared := v.LengthSquared()
	if lengthSquared < epsilon*epsilon {
		return fallback
	}
	invLength := 1 / math32.Sqrt(lengthSquared)
	return v.Scale(invLength)
}

func (v Vec3) Abs() Vec3 {
	return Vec3{math32.Abs(v.X), math32.Abs(v.Y), math32.Abs(v.Z)}
}

func (v Vec3) Index(i int) float32 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func minVec3(a, b Vec3) Vec3 {
	return Vec3{math32.Min(a.X, b.X), math32.Min(a.Y, b.Y), math32.Min(a.Z, b.Z)}
}

func maxVec3(a, b Vec3) Vec3 {
	return Vec3{math32.Max(a.X, b.X), math32.Max(a.Y, b.Y), math32.Max(a.Z, b.Z)}
}

var unitX = Vec3{1, 0, 0}

// Quat is a unit quaternion representing a rigid-body orientation. W is the
// scalar part, V the vector part.
type Quat struct {
	W float32
	V Vec3
}

var identityQuat = Quat{W: 1}

func (q Quat) Mul(other Quat) Quat {
	return Quat{
		W: q.W*other.W - q.V.Dot(other.V),
		V: other.V.Scale(q.W).Add(q.V.Scale(other.W)).Add(q.V.Cross(other.V)),
	}
}

func (q Quat) Conjugate() Quat {
	return Quat{W: q.W, V: q.V.Negate()}
}

func (q Quat) LengthSquared() float32 {
	return q.W*q.W + q.V.LengthSquared()
}

func (q Quat) Normalized() Quat {
	lengthSquared := q.LengthSquared()
	if lengthSquared < epsilon*epsilon {
		return identityQuat
	}
	invLength := 1 / math32.Sqrt(lengthSquared)
	return Quat{W: q.W * invLength, V: q.V.Scale(invLength)}
}

// RotateVec applies q's rotation to v, treating q as unit-length.
func (q Quat) RotateVec(v Vec3) Vec3 {
	t := q.V.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(q.V.Cross(t))
}

// ToMat3 builds the rotation matrix represented by a unit quaternion.
func (q Quat) ToMat3() Mat3 {
	x, y, z, w := q.V.X, q.V.Y, q.V.Z, q.W
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	return Mat3{
		Col0: Vec3{1 - (yy + zz), xy + wz, xz - wy},
		Col1: Vec3{xy - wz, 1 - (xx + zz), yz + wx},
		Col2: Vec3{xz + wy, yz - wx, 1 - (xx + yy)},
	}
}

// Mat3 is a 3x3 matrix stored by columns. Used for inverse inertia tensors
// and rotation matrices.
type Mat3 struct {
	Col0, Col1, Col2 Vec3
}

var identityMat3 = Mat3{
	Col0: Vec3{1, 0, 0},
	Col1: Vec3{0, 1, 0},
	Col2: Vec3{0, 0, 1},
}

func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m.Col0.X*v.X + m.Col1.X*v.Y + m.Col2.X*v.Z,
		m.Col0.Y*v.X + m.Col1.Y*v.Y + m.Col2.Y*v.Z,
		m.Col0.Z*v.X + m.Col1.Z*v.Y + m.Col2.Z*v.Z,
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		Col0: Vec3{m.Col0.X, m.Col1.X, m.Col2.X},
		Col1: Vec3{m.Col0.Y, m.Col1.Y, m.Col2.Y},
		Col2: Vec3{m.Col0.Z, m.Col1.Z, m.Col2.Z},
	}
}

func (m Mat3) Mul(other Mat3) Mat3 {
	return Mat3{
		Col0: m.MulVec3(other.Col0),
		Col1: m.MulVec3(other.Col1),
		Col2: m.MulVec3(other.Col2),
	}
}

// worldInverseInertia transforms a body-space inverse inertia tensor into
// world space given the body's current rotation: R * I^-1 * R^T.
func worldInverseInertia(bodyInverseInertia Mat3, rotation Mat3) Mat3 {
	return rotation.Mul(bodyInverseInertia).Mul(rotation.Transpose())
}

// Mat3x4 is a rigid transform: a rotation plus a translation, used for
// static-body world transforms.
type Mat3x4 struct {
	Rotation    Mat3
	Translation Vec3
}

var identityMat3x4 = Mat3x4{Rotation: identityMat3}

func (t Mat3x4) Apply(p Vec3) Vec3 {
	return t.Rotation.MulVec3(p).Add(t.Translation)
}

func (t Mat3x4) ApplyVector(v Vec3) Vec3 {
	return t.Rotation.MulVec3(v)
}

// Inverse returns the rigid inverse of t: R^T, -R^T*translation.
func (t Mat3x4) Inverse() Mat3x4 {
	rt := t.Rotation.Transpose()
	return Mat3x4{
		Rotation:    rt,
		Translation: rt.MulVec3(t.Translation).Negate(),
	}
}

func mat3x4FromQuat(orientation Quat, position Vec3) Mat3x4 {
	return Mat3x4{Rotation: orientation.ToMat3(), Translation: position}
}
