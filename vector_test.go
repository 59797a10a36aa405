package marlon

import (
	"testing"

	"github.com/chewxy/math32"
)

func approxEqual(a, b, tol float32) bool {
	return math32.Abs(a-b) <= tol
}

func approxVec3(a, b Vec3, tol float32) bool {
	return approxEqual(a.X, b.X, tol) && approxEqual(a.Y, b.Y, tol) && approxEqual(a.Z, b.Z, tol)
}

func TestVec3BasicOps(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	if got := a.Add(b); !approxVec3(got, NewVec3(5, 7, 9), 1e-6) {
		t.Errorf("Add = %v, want (5,7,9)", got)
	}
	if got := b.Sub(a); !approxVec3(got, NewVec3(3, 3, 3), 1e-6) {
		t.Errorf("Sub = %v, want (3,3,3)", got)
	}
	if got := a.Dot(b); !approxEqual(got, 32, 1e-6) {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := a.Cross(b); !approxVec3(got, NewVec3(-3, 6, -3), 1e-6) {
		t.Errorf("Cross = %v, want (-3,6,-3)", got)
	}
}

func TestVec3Normalized(t *testing.T) {
	v := NewVec3(3, 4, 0)
	n := v.Normalized(unitX)
	if !approxEqual(n.Length(), 1, 1e-6) {
		t.Fatalf("normalized length = %v, want 1", n.Length())
	}
	zero := Vec3{}
	if got := zero.Normalized(unitX); got != unitX {
		t.Errorf("zero-vector Normalized fallback = %v, want %v", got, unitX)
	}
}

func TestQuatRotateVecMatchesToMat3(t *testing.T) {
	axis := NewVec3(0, 1, 0)
	half := math32.Pi / 4
	q := Quat{W: math32.Cos(half), V: axis.Scale(math32.Sin(half))}.Normalized()

	v := NewVec3(1, 0, 0)
	viaQuat := q.RotateVec(v)
	viaMat := q.ToMat3().MulVec3(v)

	if !approxVec3(viaQuat, viaMat, 1e-5) {
		t.Errorf("RotateVec = %v, ToMat3().MulVec3 = %v, want equal", viaQuat, viaMat)
	}
}

func TestQuatMulIdentity(t *testing.T) {
	axis := NewVec3(1, 1, 1).Normalized(unitX)
	q := Quat{W: 0.8, V: axis.Scale(0.2)}.Normalized()
	if got := q.Mul(identityQuat); !approxEqual(got.W, q.W, 1e-6) || !approxVec3(got.V, q.V, 1e-6) {
		t.Errorf("q*identity = %v, want %v", got, q)
	}
}

func TestMat3x4InverseRoundTrip(t *testing.T) {
	axis := NewVec3(0, 0, 1)
	q := Quat{W: math32.Cos(0.3), V: axis.Scale(math32.Sin(0.3))}.Normalized()
	transform := mat3x4FromQuat(q, NewVec3(1, 2, 3))
	inverse := transform.Inverse()

	p := NewVec3(5, -1, 2)
	roundTrip := inverse.Apply(transform.Apply(p))
	if !approxVec3(roundTrip, p, 1e-4) {
		t.Errorf("inverse(transform(p)) = %v, want %v", roundTrip, p)
	}
}

func TestWorldInverseInertiaIdentityRotation(t *testing.T) {
	bodyInverseInertia := Mat3{
		Col0: Vec3{2, 0, 0},
		Col1: Vec3{0, 3, 0},
		Col2: Vec3{0, 0, 4},
	}
	got := worldInverseInertia(bodyInverseInertia, identityMat3)
	if got != bodyInverseInertia {
		t.Errorf("worldInverseInertia under identity rotation = %v, want %v", got, bodyInverseInertia)
	}
}
